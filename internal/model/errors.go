package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, provider, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest         = "INVALID_REQUEST"
	ErrCodeProviderFailure        = "PROVIDER_FAILURE"
	ErrCodeNoExternalID           = "NO_EXTERNAL_ID"
	ErrCodeIneligible             = "INELIGIBLE"
	ErrCodeRegistrationIncomplete = "REGISTRATION_INCOMPLETE"
	ErrCodeConflict               = "CONFLICT"
	ErrCodeInvalidToken           = "INVALID_TOKEN"
	ErrCodeAccountNotFound        = "ACCOUNT_NOT_FOUND"
)

// NewInvalidRequestError は入力不備エラーを生成する。
// 認可コード欠落など、リトライしても成功しない400相当の条件。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "リクエスト内容を確認してください。",
	}
}

// NewProviderFailureError はIdPとの交換失敗エラーを生成する。
// ユーザーがログインをやり直すことでリトライ可能。
func NewProviderFailureError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeProviderFailure,
		Message:  fmt.Sprintf("IDプロバイダーとの通信に失敗しました: %s", reason),
		Category: "provider",
		Action:   "ログインを最初からやり直してください。",
	}
}

// NewNoExternalIDError はプロファイルに安定した外部IDが無い場合のエラーを生成する。
// リトライ不能な内部エラーとして扱い、運用者向けにログに残す。
func NewNoExternalIDError() *APIError {
	return &APIError{
		Code:     ErrCodeNoExternalID,
		Message:  "IDプロバイダーのプロファイルに外部IDが含まれていません。",
		Category: "system",
		Action:   "管理者に問い合わせてください。",
	}
}

// NewIneligibleError は登録資格なしエラーを生成する。
// 内部エラーではなく、確定的な登録拒否としてユーザーに提示する。
func NewIneligibleError(email string) *APIError {
	return &APIError{
		Code:     ErrCodeIneligible,
		Message:  fmt.Sprintf("このメールアドレスでは登録できません: %s", email),
		Category: "auth",
		Action:   "所属機関のメールアドレスでログインしてください。",
	}
}

// NewRegistrationIncompleteError は登録後にIDを取得できなかった場合のエラーを生成する。
func NewRegistrationIncompleteError() *APIError {
	return &APIError{
		Code:     ErrCodeRegistrationIncomplete,
		Message:  "アカウント登録が完了しませんでした。",
		Category: "system",
		Action:   "しばらく待ってから再度ログインしてください。",
	}
}

// NewConflictError は同一外部IDの同時登録による一意性違反エラーを生成する。
// 呼び出し側は登録ではなくログインとしてリトライすべき。
func NewConflictError() *APIError {
	return &APIError{
		Code:     ErrCodeConflict,
		Message:  "このアカウントは既に登録されています。",
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewInvalidTokenError は無効トークンエラーを生成する。
// サーバーエラーではなく未認証として扱う。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidToken,
		Message:  "トークンが無効です。",
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewAccountNotFoundError はアカウントが見つからない場合のエラーを生成する。
func NewAccountNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeAccountNotFound,
		Message:  "アカウントが見つかりません。",
		Category: "auth",
		Action:   "IDを確認してください。",
	}
}

// ErrorCode はerrに含まれるAPIErrorのコードを返す。
// APIErrorでない場合は空文字列を返す。
func ErrorCode(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

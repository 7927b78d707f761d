// Package auth はOAuth認証フロー、アカウント解決、セッショントークン管理を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/classtime/internal/model"
	"github.com/hitoshi/classtime/internal/repository"
)

// Profile はIdPから取得した検証済みユーザープロファイルを表す。
type Profile struct {
	GoogleID  string
	Email     string
	FirstName string
	LastName  string
}

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
type OAuthProvider interface {
	// GetLoginURL は同意画面URLを生成する。stateが空なら付与しない。
	GetLoginURL(state string) string
	// ExchangeCode は認可コードを交換し、検証済みプロファイルを取得する。
	ExchangeCode(ctx context.Context, code string) (*Profile, error)
}

// MetricsRecorder は認証サービスが記録するメトリクスのインターフェース。
type MetricsRecorder interface {
	RecordLogin(role model.Role)
	RecordRegistration(role model.Role)
	RecordAuthFailure(code string)
	RecordTokenValidation(valid bool)
}

// noopMetrics はメトリクス未設定時のダミー実装。
type noopMetrics struct{}

func (noopMetrics) RecordLogin(model.Role)        {}
func (noopMetrics) RecordRegistration(model.Role) {}
func (noopMetrics) RecordAuthFailure(string)      {}
func (noopMetrics) RecordTokenValidation(bool)    {}

// Service は認証に関するビジネスロジックを提供する。
// アカウント解決・登録・トークン発行/検証・state相関を1つのサービスに集約する。
type Service struct {
	oauth      OAuthProvider
	accounts   repository.AccountRepository
	tokens     repository.TokenRepository
	classifier *Classifier
	states     *StateCache
	metrics    MetricsRecorder
}

// NewService はServiceを生成する。metricsはnilでもよい。
func NewService(
	oauth OAuthProvider,
	accounts repository.AccountRepository,
	tokens repository.TokenRepository,
	classifier *Classifier,
	states *StateCache,
	metrics MetricsRecorder,
) *Service {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Service{
		oauth:      oauth,
		accounts:   accounts,
		tokens:     tokens,
		classifier: classifier,
		states:     states,
		metrics:    metrics,
	}
}

// BeginLogin はOAuthフローの開始URLを返す。
// originが空でない場合はstate値を生成してoriginと関連付け、URLに付与する。
func (s *Service) BeginLogin(origin string) string {
	state := ""
	if origin != "" {
		state = s.states.Generate(origin)
	}
	return s.oauth.GetLoginURL(state)
}

// ConsumeState はstate値をリダイレクト元originに解決する（単一使用）。
// 未知または期限切れのstateはok=falseを返す。
func (s *Service) ConsumeState(state string) (origin string, ok bool) {
	return s.states.Consume(state)
}

// SweepStates は期限切れstateエントリを回収する。スイープジョブから呼ばれる。
func (s *Service) SweepStates() int {
	return s.states.SweepExpired()
}

// Resolve は外部ID（googleid）を既存アカウントに解決する。
// 生徒→教員の順で検索する（固定のタイブレーク。ストアの一意性不変条件により
// 両テーブルにヒットすることはない）。見つからない場合はnilを返す。
// ストア障害は握りつぶさずエラーとして返す。
func (s *Service) Resolve(ctx context.Context, googleID string) (*model.Account, error) {
	student, err := s.accounts.FindStudentByGoogleID(ctx, googleID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve student identity: %w", err)
	}
	if student != nil {
		return student, nil
	}

	instructor, err := s.accounts.FindInstructorByGoogleID(ctx, googleID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve instructor identity: %w", err)
	}
	if instructor != nil {
		return instructor, nil
	}

	return nil, nil
}

// Register は検証済みプロファイルから新規アカウントを作成し、トークンを発行する。
// メールがどのロールにも該当しない場合はINELIGIBLE（確定的な登録拒否）。
// 同一googleidの同時登録はストアの一意性制約が防ぎ、敗者はCONFLICTを受け取る。
func (s *Service) Register(ctx context.Context, reg model.RegistrationData) (*model.Account, string, error) {
	role, ok := s.classifier.Classify(reg.Email)
	if !ok {
		s.metrics.RecordAuthFailure(model.ErrCodeIneligible)
		return nil, "", model.NewIneligibleError(reg.Email)
	}

	acc := &model.Account{
		Role:      role,
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
		GoogleID:  reg.GoogleID,
		Email:     reg.Email,
	}
	switch role {
	case model.RoleStudent:
		acc.Student = &model.StudentProfile{}
	case model.RoleInstructor:
		acc.Instructor = &model.InstructorProfile{}
	}

	id, err := s.accounts.Create(ctx, acc)
	if err != nil {
		if model.ErrorCode(err) == model.ErrCodeConflict {
			s.metrics.RecordAuthFailure(model.ErrCodeConflict)
			return nil, "", err
		}
		return nil, "", fmt.Errorf("failed to create account: %w", err)
	}
	if id == 0 {
		return nil, "", model.NewRegistrationIncompleteError()
	}
	acc.ID = id

	token, err := s.issueToken(ctx, id)
	if err != nil {
		return nil, "", err
	}

	s.metrics.RecordRegistration(role)
	slog.Info("new account registered",
		slog.Int64("account_id", id),
		slog.String("role", string(role)),
	)

	return acc, token, nil
}

// Login は既存アカウントに新しいトークンを発行する。
// トークンはログインごとに新規発行され、同一アカウントの既存トークンは
// スイープされるまで独立に有効のまま残る。
func (s *Service) Login(ctx context.Context, acc *model.Account) (string, error) {
	token, err := s.issueToken(ctx, acc.ID)
	if err != nil {
		return "", err
	}

	s.metrics.RecordLogin(acc.Role)
	slog.Info("existing account logged in",
		slog.Int64("account_id", acc.ID),
		slog.String("role", string(acc.Role)),
	)

	return token, nil
}

// HandleCallback はOAuthコールバックの本体処理。
// 認可コードを交換し、既存アカウントならログイン、未知のアカウントなら登録する。
func (s *Service) HandleCallback(ctx context.Context, code string) (*model.Account, string, error) {
	// 空のコードは外部呼び出し前に拒否する。
	if code == "" {
		return nil, "", model.NewInvalidRequestError("authorization code is required")
	}

	profile, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			// NO_EXTERNAL_ID等はそのまま伝播する。
			s.metrics.RecordAuthFailure(apiErr.Code)
			return nil, "", err
		}
		s.metrics.RecordAuthFailure(model.ErrCodeProviderFailure)
		slog.Error("oauth exchange failed", slog.String("error", err.Error()))
		return nil, "", model.NewProviderFailureError(err.Error())
	}

	acc, err := s.Resolve(ctx, profile.GoogleID)
	if err != nil {
		return nil, "", err
	}

	if acc != nil {
		token, err := s.Login(ctx, acc)
		if err != nil {
			return nil, "", err
		}
		return acc, token, nil
	}

	return s.Register(ctx, model.RegistrationData{
		Email:     profile.Email,
		GoogleID:  profile.GoogleID,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
	})
}

// Authenticate はトークンを検証し、紐付くアカウントを返す。
// ストアに存在しないトークンは未認証（INVALID_TOKEN）として扱い、
// 存在する場合はlastusedを更新した上で内部IDからアカウントを解決する。
func (s *Service) Authenticate(ctx context.Context, token string) (*model.Account, error) {
	if token == "" {
		s.metrics.RecordTokenValidation(false)
		return nil, model.NewInvalidTokenError()
	}

	accountID, found, err := s.tokens.FindAndTouch(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}
	if !found {
		s.metrics.RecordTokenValidation(false)
		return nil, model.NewInvalidTokenError()
	}

	acc, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve token account: %w", err)
	}
	if acc == nil {
		// トークンは残っているがアカウントが消えている。未認証として扱う。
		s.metrics.RecordTokenValidation(false)
		return nil, model.NewInvalidTokenError()
	}

	s.metrics.RecordTokenValidation(true)
	return acc, nil
}

// AccountByID は内部IDでアカウントを返す。管理・デバッグ用途。
func (s *Service) AccountByID(ctx context.Context, id int64) (*model.Account, error) {
	acc, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	if acc == nil {
		return nil, model.NewAccountNotFoundError()
	}
	return acc, nil
}

// ListAccounts は指定ロールの全アカウントを返す。デバッグ用途。
func (s *Service) ListAccounts(ctx context.Context, role model.Role) ([]*model.Account, error) {
	return s.accounts.ListByRole(ctx, role)
}

// issueToken はトークンを生成して永続化する。
func (s *Service) issueToken(ctx context.Context, accountID int64) (string, error) {
	token, err := GenerateToken(accountID)
	if err != nil {
		return "", err
	}
	if err := s.tokens.Create(ctx, token, accountID); err != nil {
		return "", fmt.Errorf("failed to persist token: %w", err)
	}
	return token, nil
}

// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/classtime/internal/model"
)

// AccountRepository はアカウントデータの永続化インターフェース。
// 生徒・教員の2テーブルを1つのAccountモデルに集約して扱う。
type AccountRepository interface {
	// FindStudentByGoogleID はgoogleidで生徒を検索する。見つからない場合はnilを返す。
	FindStudentByGoogleID(ctx context.Context, googleID string) (*model.Account, error)

	// FindInstructorByGoogleID はgoogleidで教員を検索する。見つからない場合はnilを返す。
	FindInstructorByGoogleID(ctx context.Context, googleID string) (*model.Account, error)

	// FindByID は内部IDでアカウントを検索する。両テーブルを引き、見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Account, error)

	// Create はaccの内容でロールに応じたテーブルに行を挿入し、採番されたIDを返す。
	// 挿入とID取得はINSERT ... RETURNINGで単一文として実行する。
	// 同一googleidの一意性違反はmodel.ErrCodeConflictのAPIErrorとして返す。
	Create(ctx context.Context, acc *model.Account) (int64, error)

	// ListByRole は指定ロールの全アカウントを返す。デバッグ用途。
	ListByRole(ctx context.Context, role model.Role) ([]*model.Account, error)
}

// TokenRepository はセッショントークンの永続化インターフェース。
type TokenRepository interface {
	// Create はトークンをlastused=現在時刻で保存する。
	Create(ctx context.Context, token string, accountID int64) error

	// FindAndTouch はトークンに紐付くアカウントIDを返し、同時にlastusedを更新する。
	// 単一のUPDATE ... RETURNINGで実行するため、検証とタッチの間に競合窓はない。
	// トークンが存在しない場合はfound=falseを返す。
	FindAndTouch(ctx context.Context, token string) (accountID int64, found bool, err error)

	// DeleteIdle はlastusedがmaxIdleより古い全トークンを1トランザクションで削除し、
	// 削除件数を返す。冪等であり、検証トラフィックと並行実行しても安全。
	DeleteIdle(ctx context.Context, maxIdle time.Duration) (int64, error)
}

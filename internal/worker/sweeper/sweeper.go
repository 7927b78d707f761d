// Package sweeper はセッションの定期メンテナンスジョブを提供する。
// 最終使用からしきい値（デフォルト60分）を超えたトークンを削除し、
// 併せて期限切れのstateエントリを回収する。
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// TokenDeleter は失効トークンの削除に必要なインターフェース。
// repository.TokenRepositoryの部分集合として定義する。
type TokenDeleter interface {
	DeleteIdle(ctx context.Context, maxIdle time.Duration) (int64, error)
}

// StateSweeper は期限切れstateエントリの回収に必要なインターフェース。
// auth.Serviceの部分集合として定義する。
type StateSweeper interface {
	SweepStates() int
}

// SweepRecorder はスイープ結果のメトリクス記録のインターフェース。
type SweepRecorder interface {
	RecordTokensSwept(count int64)
	RecordStatesSwept(count int)
	RecordSweepDuration(duration time.Duration)
}

// Sweeper はトークンとstateの定期スイープジョブ。
// 外部スケジューラ（workerモードのティッカー）から起動され、冪等に動作する。
// 検証トラフィックと並行実行しても安全: 検証中にスイープされたトークンは
// 次回のルックアップでInvalidになるだけ。
type Sweeper struct {
	tokens  TokenDeleter
	states  StateSweeper
	logger  *slog.Logger
	metrics SweepRecorder

	// MaxIdle は最終使用からの失効しきい値（デフォルト: 60分）。
	MaxIdle time.Duration
}

// NewSweeper は新しいSweeperを生成する。
// statesとmetricsはnilでもよい。
func NewSweeper(tokens TokenDeleter, states StateSweeper, logger *slog.Logger, metrics SweepRecorder) *Sweeper {
	return &Sweeper{
		tokens:  tokens,
		states:  states,
		logger:  logger,
		metrics: metrics,
		MaxIdle: 60 * time.Minute,
	}
}

// Run はしきい値を超えたトークンと期限切れstateを削除する。
// トークン削除は1トランザクションで行われる。
// 冪等: 削除対象がない場合でもエラーにならない。
func (s *Sweeper) Run(ctx context.Context) error {
	start := time.Now()

	deleted, err := s.tokens.DeleteIdle(ctx, s.MaxIdle)
	if err != nil {
		s.logger.Error("トークンスイープの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Duration("max_idle", s.MaxIdle),
		)
		return fmt.Errorf("トークンスイープの実行に失敗: %w", err)
	}

	statesSwept := 0
	if s.states != nil {
		statesSwept = s.states.SweepStates()
	}

	duration := time.Since(start)
	if s.metrics != nil {
		s.metrics.RecordTokensSwept(deleted)
		s.metrics.RecordStatesSwept(statesSwept)
		s.metrics.RecordSweepDuration(duration)
	}

	s.logger.Info("セッションスイープが完了しました",
		slog.Int64("tokens_deleted", deleted),
		slog.Int("states_deleted", statesSwept),
		slog.Duration("max_idle", s.MaxIdle),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

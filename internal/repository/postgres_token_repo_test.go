package repository

import (
	"testing"
)

// PostgresTokenRepoはTokenRepositoryインターフェースを満たすことを検証
func TestPostgresTokenRepo_ImplementsInterface(t *testing.T) {
	var _ TokenRepository = (*PostgresTokenRepo)(nil)
}

// NewPostgresTokenRepoが正しく初期化されることを検証
func TestNewPostgresTokenRepo_Initializes(t *testing.T) {
	repo := NewPostgresTokenRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

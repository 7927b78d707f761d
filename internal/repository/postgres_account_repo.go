package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/classtime/internal/model"
)

// pqUniqueViolation はPostgreSQLの一意性制約違反のエラーコード。
const pqUniqueViolation = "23505"

// PostgresAccountRepo はPostgreSQLを使用したアカウントリポジトリ。
type PostgresAccountRepo struct {
	db *sql.DB
}

// NewPostgresAccountRepo はPostgresAccountRepoを生成する。
func NewPostgresAccountRepo(db *sql.DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

// FindStudentByGoogleID はgoogleidで生徒を検索する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindStudentByGoogleID(ctx context.Context, googleID string) (*model.Account, error) {
	acc := &model.Account{Role: model.RoleStudent, Student: &model.StudentProfile{}}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, firstname, lastname, googleid, email, homeroomteacher
		 FROM accounts_student WHERE googleid = $1`,
		googleID,
	).Scan(&acc.ID, &acc.FirstName, &acc.LastName, &acc.GoogleID, &acc.Email,
		&acc.Student.HomeroomTeacher)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find student by googleid: %w", err)
	}

	return acc, nil
}

// FindInstructorByGoogleID はgoogleidで教員を検索する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindInstructorByGoogleID(ctx context.Context, googleID string) (*model.Account, error) {
	acc := &model.Account{Role: model.RoleInstructor, Instructor: &model.InstructorProfile{}}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, firstname, lastname, googleid, email, hashomeroom, homeroomlocation
		 FROM accounts_instructor WHERE googleid = $1`,
		googleID,
	).Scan(&acc.ID, &acc.FirstName, &acc.LastName, &acc.GoogleID, &acc.Email,
		&acc.Instructor.HasHomeroom, &acc.Instructor.HomeroomLocation)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find instructor by googleid: %w", err)
	}

	return acc, nil
}

// FindByID は内部IDでアカウントを検索する。
// IDは共有シーケンスから採番されるため、ヒットするのは高々1テーブル。
// 生徒→教員の順で引き、見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByID(ctx context.Context, id int64) (*model.Account, error) {
	acc := &model.Account{Role: model.RoleStudent, Student: &model.StudentProfile{}}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, firstname, lastname, googleid, email, homeroomteacher
		 FROM accounts_student WHERE id = $1`,
		id,
	).Scan(&acc.ID, &acc.FirstName, &acc.LastName, &acc.GoogleID, &acc.Email,
		&acc.Student.HomeroomTeacher)
	if err == nil {
		return acc, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to find student by id: %w", err)
	}

	acc = &model.Account{Role: model.RoleInstructor, Instructor: &model.InstructorProfile{}}
	err = r.db.QueryRowContext(ctx,
		`SELECT id, firstname, lastname, googleid, email, hashomeroom, homeroomlocation
		 FROM accounts_instructor WHERE id = $1`,
		id,
	).Scan(&acc.ID, &acc.FirstName, &acc.LastName, &acc.GoogleID, &acc.Email,
		&acc.Instructor.HasHomeroom, &acc.Instructor.HomeroomLocation)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find instructor by id: %w", err)
	}

	return acc, nil
}

// Create はロールに応じたテーブルへINSERT ... RETURNING idで行を挿入する。
// 同一googleidの一意性違反はCONFLICTとして返す（同時登録の敗者側が受け取る）。
func (r *PostgresAccountRepo) Create(ctx context.Context, acc *model.Account) (int64, error) {
	var (
		id  int64
		err error
	)

	switch acc.Role {
	case model.RoleStudent:
		homeroomTeacher := ""
		if acc.Student != nil {
			homeroomTeacher = acc.Student.HomeroomTeacher
		}
		err = r.db.QueryRowContext(ctx,
			`INSERT INTO accounts_student (firstname, lastname, googleid, email, homeroomteacher)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id`,
			acc.FirstName, acc.LastName, acc.GoogleID, acc.Email, homeroomTeacher,
		).Scan(&id)
	case model.RoleInstructor:
		var (
			hasHomeroom      bool
			homeroomLocation string
		)
		if acc.Instructor != nil {
			hasHomeroom = acc.Instructor.HasHomeroom
			homeroomLocation = acc.Instructor.HomeroomLocation
		}
		err = r.db.QueryRowContext(ctx,
			`INSERT INTO accounts_instructor (firstname, lastname, googleid, email, hashomeroom, homeroomlocation)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id`,
			acc.FirstName, acc.LastName, acc.GoogleID, acc.Email, hasHomeroom, homeroomLocation,
		).Scan(&id)
	default:
		return 0, fmt.Errorf("unknown account role: %q", acc.Role)
	}

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return 0, model.NewConflictError()
		}
		return 0, fmt.Errorf("failed to insert account: %w", err)
	}

	return id, nil
}

// ListByRole は指定ロールの全アカウントを返す。デバッグ用途。
func (r *PostgresAccountRepo) ListByRole(ctx context.Context, role model.Role) ([]*model.Account, error) {
	var query string
	switch role {
	case model.RoleStudent:
		query = `SELECT id, firstname, lastname FROM accounts_student ORDER BY id`
	case model.RoleInstructor:
		query = `SELECT id, firstname, lastname FROM accounts_instructor ORDER BY id`
	default:
		return nil, fmt.Errorf("unknown account role: %q", role)
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*model.Account
	for rows.Next() {
		acc := &model.Account{Role: role}
		if err := rows.Scan(&acc.ID, &acc.FirstName, &acc.LastName); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}

// compile-time interface check
var _ AccountRepository = (*PostgresAccountRepo)(nil)

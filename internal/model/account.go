// Package model はドメインモデルを定義する。
package model

// Role はアカウントの種別を表す。
type Role string

const (
	// RoleStudent は生徒アカウントを示す。
	RoleStudent Role = "student"
	// RoleInstructor は教員アカウントを示す。
	RoleInstructor Role = "instructor"
)

// Account は内部アカウントを表す。
// 生徒・教員の共通フィールドと、Roleに応じたプロファイルを1つだけ持つ。
// IDは両テーブル共有のシーケンスから採番され、システム全体で一意。
type Account struct {
	ID        int64  `json:"id"`
	Role      Role   `json:"role"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	GoogleID  string `json:"-"`
	Email     string `json:"email,omitempty"`

	// Roleに対応するプロファイルのみ非nil。
	Student    *StudentProfile    `json:"student,omitempty"`
	Instructor *InstructorProfile `json:"instructor,omitempty"`
}

// StudentProfile は生徒固有のフィールドを表す。
type StudentProfile struct {
	HomeroomTeacher string `json:"homeroomteacher,omitempty"`
}

// InstructorProfile は教員固有のフィールドを表す。
type InstructorProfile struct {
	HasHomeroom      bool   `json:"hashomeroom"`
	HomeroomLocation string `json:"homeroomlocation,omitempty"`
}

// RegistrationData はIdPの検証済みプロファイルから構築される登録データ。
// 永続化されず、登録処理で1回だけ消費される。
type RegistrationData struct {
	Email     string
	GoogleID  string
	FirstName string
	LastName  string
}

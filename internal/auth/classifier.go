package auth

import (
	"regexp"

	"github.com/hitoshi/classtime/internal/model"
)

// Classifier はメールアドレスから登録可能なロールを判定する。
// 判定は全域的かつ決定的: 任意の入力に対して
// Student / Instructor / 資格なし のいずれか1つを必ず返す。
type Classifier struct {
	student    *regexp.Regexp
	instructor *regexp.Regexp
}

// NewClassifier はClassifierを生成する。
// 両パターンは設定から渡される（機関固有の生徒・教員アドレス形式）。
func NewClassifier(student, instructor *regexp.Regexp) *Classifier {
	return &Classifier{
		student:    student,
		instructor: instructor,
	}
}

// Classify はemailに対応するロールを返す。
// 両パターンにマッチする場合はStudentを優先する（タイブレーク。
// 生徒パターンの方が狭い形式であり、誤って教員権限を与えるより安全側に倒す）。
// どちらにもマッチしない場合はok=falseを返し、登録資格なしとして扱う。
func (c *Classifier) Classify(email string) (role model.Role, ok bool) {
	if c.student.MatchString(email) {
		return model.RoleStudent, true
	}
	if c.instructor.MatchString(email) {
		return model.RoleInstructor, true
	}
	return "", false
}

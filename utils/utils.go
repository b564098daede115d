package utils

import (
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const BcryptCost = 12

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

var (
	nonWordRe   = regexp.MustCompile(`[^\w]+`)
	multiDashRe = regexp.MustCompile(`-+`)
)

// Slugify приводит произвольный ник к безопасному виду для плейсхолдерных
// email-адресов ("Häns B." -> "h-ns-b"). Пустой результат заменяется на
// "user".
func Slugify(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	value = nonWordRe.ReplaceAllString(value, "-")
	value = strings.Trim(multiDashRe.ReplaceAllString(value, "-"), "-")
	if value == "" {
		return "user"
	}
	return value
}

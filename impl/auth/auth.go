// Package auth validates Telegram Web-App init data and resolves it to a
// stored user. The check follows the documented scheme: a data-check string
// is built from the sorted query fields and verified against an HMAC keyed
// with HMAC("WebAppData", bot token).
//
// See https://core.telegram.org/bots/webapps#validating-data-received-via-the-mini-app
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"groupsight/entity"
)

// MaxAge rejects init data older than this, limiting replay.
const MaxAge = 24 * time.Hour

type Database interface {
	GetUser(tgId int64) (*entity.User, error)
	UpsertUser(user *entity.User) error
}

type Auth struct {
	token string
	db    Database
}

func New(token string, db Database) *Auth {
	return &Auth{token: token, db: db}
}

// webAppUser is the "user" field of init data.
type webAppUser struct {
	Id           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Username     string `json:"username"`
	LanguageCode string `json:"language_code"`
	IsPremium    bool   `json:"is_premium"`
}

// UserByInitData validates raw init data and returns the stored user,
// creating the row on first sight.
func (a *Auth) UserByInitData(initData string) (*entity.User, error) {
	values, err := Validate(a.token, initData, time.Now())
	if err != nil {
		return nil, err
	}

	var wu webAppUser
	if err = json.Unmarshal([]byte(values.Get("user")), &wu); err != nil {
		return nil, fmt.Errorf("parse user field: %w", err)
	}
	if wu.Id == 0 {
		return nil, fmt.Errorf("init data has no user id")
	}

	if a.db == nil {
		return nil, fmt.Errorf("database not connected")
	}
	user := &entity.User{
		TgId:         wu.Id,
		FirstName:    wu.FirstName,
		LastName:     wu.LastName,
		Username:     wu.Username,
		LanguageCode: wu.LanguageCode,
		IsPremium:    wu.IsPremium,
	}
	if err = a.db.UpsertUser(user); err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	stored, err := a.db.GetUser(wu.Id)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return user, nil
	}
	return stored, nil
}

// Validate checks the init-data signature and freshness and returns the
// parsed fields.
func Validate(token, initData string, now time.Time) (url.Values, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, fmt.Errorf("parse init data: %w", err)
	}
	hash := values.Get("hash")
	if hash == "" {
		return nil, fmt.Errorf("no hash present in init data")
	}
	values.Del("hash")

	if expected := Sign(token, values); !hmac.Equal([]byte(expected), []byte(hash)) {
		return nil, fmt.Errorf("init data hash is not valid")
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid auth_date: %w", err)
	}
	if now.Sub(time.Unix(authDate, 0)) > MaxAge {
		return nil, fmt.Errorf("init data is too old")
	}

	return values, nil
}

// Sign computes the expected hash of init-data fields (hash excluded).
func Sign(token string, values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		sb.WriteString(k + "=" + values.Get(k))
		if i+1 != len(keys) {
			sb.WriteString("\n")
		}
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(token))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(sb.String()))
	return hex.EncodeToString(mac.Sum(nil))
}

package app

import (
	"time"

	"github.com/haierkeys/novel-sync-service/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// DefaultTokenIssuer 默认签发者
const DefaultTokenIssuer = "novel-sync-service"

// 解析后的 *UserEntity 在 gin.Context 中的 key
const userTokenKey = "user_token"

// TokenConfig Token 签发配置，Expiry 为 0 时默认 7 天
type TokenConfig struct {
	SecretKey string
	Expiry    time.Duration
	Issuer    string
}

// TokenManager 签发并校验账号 Token
type TokenManager interface {
	Generate(uid string, username, ip string) (string, error)
	Parse(token string) (*UserEntity, error)
	Validate(token string) error
}

// UserEntity Token 携带的账号信息
type UserEntity struct {
	UID      string `json:"uid"`
	Username string `json:"username"`
	IP       string `json:"ip"`
	jwt.RegisteredClaims
}

type tokenManager struct {
	config TokenConfig
	// 签名密钥与机器码绑定，配置文件被复制到其他机器后旧 Token 失效
	key    []byte
	parser *jwt.Parser
}

func NewTokenManager(cfg TokenConfig) TokenManager {
	if cfg.Expiry == 0 {
		cfg.Expiry = 7 * 24 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultTokenIssuer
	}
	return &tokenManager{
		config: cfg,
		key:    []byte(cfg.SecretKey + "_" + util.GetMachineID()),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
		),
	}
}

func (t *tokenManager) Generate(uid string, username, ip string) (string, error) {
	now := time.Now()
	claims := &UserEntity{
		UID:      uid,
		Username: username,
		IP:       ip,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uid,
			Subject:   "user-token",
			Issuer:    t.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.config.Expiry)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

func (t *tokenManager) Parse(token string) (*UserEntity, error) {
	claims := new(UserEntity)
	_, err := t.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.key, nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (t *tokenManager) Validate(token string) error {
	_, err := t.Parse(token)
	return err
}

// GetUID 当前请求的账号 ID，未鉴权时为空
func GetUID(ctx *gin.Context) string {
	if v, ok := ctx.Get(userTokenKey); ok {
		if user, ok := v.(*UserEntity); ok {
			return user.UID
		}
	}
	return ""
}

// SetTokenToContext 解析 Token 成功后写入 gin.Context
func SetTokenToContext(ctx *gin.Context, tm TokenManager, tokenString string) error {
	user, err := tm.Parse(tokenString)
	if err != nil {
		return err
	}
	ctx.Set(userTokenKey, user)
	return nil
}

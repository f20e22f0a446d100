package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/postboard/internal/flagx"
	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// parseEnv overlays config with environment variables. Values from a dotenv
// file (the -env flag, or ./.env) are used only for keys the real
// environment does not set. A missing default .env is fine; a missing file
// named explicitly, or a malformed value, panics.
func parseEnv(config *Config) {
	path := flagx.EnvFileFlags()
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}

	fileVars, err := godotenv.Read(path)
	if err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			panic(err)
		}
		fileVars = map[string]string{}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}

	if err := applyEnv(config, lookup); err != nil {
		panic(err)
	}
}

func applyEnv(config *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"ADDRESS":          &config.EndpointAddrHTTP,
		"DATABASE_DSN":     &config.DatabaseDSN,
		"JWT_KEY":          &config.SecretKey,
		"CORS_ORIGIN":      &config.CORSOrigin,
		"S3_ROOT_USER":     &config.S3RootUser,
		"S3_ROOT_PASSWORD": &config.S3RootPassword,
		"S3_BUCKET":        &config.S3Bucket,
		"S3_REGION":        &config.S3Region,
		"S3_BASE_ENDPOINT": &config.S3BaseEndpoint,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"BCRYPT_COST":     &config.BcryptCost,
		"MAX_UPLOAD_SIZE": &config.MaxUploadSize,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("env %s: %w", key, err)
		}
		*dst = n
	}

	if v, ok := lookup("TOKEN_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("env TOKEN_TTL: %w", err)
		}
		config.AccessTokenValidityDuration = d
	}

	return nil
}

package chromadb

import (
	"strings"

	"github.com/yungbote/datavault-backend/internal/platform/envutil"
)

type Config struct {
	PersistPath string
	Collection  string
}

type ConfigErrorCode string

const ConfigErrorMissingCollection ConfigErrorCode = "missing_collection"

type ConfigError struct {
	Code  ConfigErrorCode
	Value string
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid chromadb config"
	}
	switch e.Code {
	case ConfigErrorMissingCollection:
		return "CHROMA_NOSQL_COLLECTION must not be blank"
	default:
		return "invalid chromadb config"
	}
}

// ResolveConfigFromEnv reads CHROMA_PERSIST_PATH and
// CHROMA_NOSQL_COLLECTION. Placeholder angle brackets copied from env
// templates are stripped from the path.
func ResolveConfigFromEnv() (Config, error) {
	path := envutil.String("CHROMA_PERSIST_PATH", "./chroma_db")
	path = strings.Trim(path, "<>")
	if strings.TrimSpace(path) == "" {
		path = "./chroma_db"
	}
	collection := envutil.String("CHROMA_NOSQL_COLLECTION", "nosql_graph_embeddings")
	collection = strings.TrimSpace(strings.Trim(collection, "<>"))
	if collection == "" {
		return Config{}, &ConfigError{Code: ConfigErrorMissingCollection}
	}
	return Config{PersistPath: path, Collection: collection}, nil
}

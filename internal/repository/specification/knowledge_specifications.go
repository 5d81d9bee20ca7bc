package specification

import (
	"strings"

	"gorm.io/gorm"
)

// ContentMatchesAny keeps documents whose title or content contains at least one
// keyword (case-insensitive). An empty keyword list matches everything.
type ContentMatchesAny struct {
	Keywords []string
}

func (s ContentMatchesAny) Apply(db *gorm.DB) *gorm.DB {
	var clauses []string
	var args []interface{}
	for _, k := range s.Keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		pattern := "%" + escapeLike(k) + "%"
		clauses = append(clauses, "knowledge_documents.title ILIKE ? OR knowledge_documents.content ILIKE ?")
		args = append(args, pattern, pattern)
	}
	if len(clauses) == 0 {
		return db
	}
	return db.Where("("+strings.Join(clauses, " OR ")+")", args...)
}

// BySourceTypes filters documents by their sourceType.
type BySourceTypes struct {
	Types []string
}

func (s BySourceTypes) Apply(db *gorm.DB) *gorm.DB {
	if len(s.Types) == 0 {
		return db
	}
	return db.Where("knowledge_documents.source_type IN ?", s.Types)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Package sqlxrepos implements the domain repositories on postgres with jmoiron/sqlx.
package sqlxrepos

import (
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/kulliya/core"
)

// base is embedded by every repository.
type base struct {
	exec core.DBExecutor
}

func (repo base) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

// trapNoRowsErr maps psql "no rows" err to notFound
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// startsWith returns a LIKE pattern matching values starting with prefix.
func startsWith(prefix string) string {
	return likeEscaper.Replace(prefix) + "%"
}

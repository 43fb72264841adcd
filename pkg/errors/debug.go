package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump is a log-friendly view of an error chain, including Postgres
// diagnostics when the driver surfaced them.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgxErr):
		d.PGCode = pgxErr.Code
		d.PGConstraint = pgxErr.ConstraintName
		d.PGTable = pgxErr.TableName
		d.PGDetail = pgxErr.Detail
		d.PGMessage = pgxErr.Message
	case errors.As(err, &pqErr):
		d.PGCode = string(pqErr.Code)
		d.PGConstraint = pqErr.Constraint
		d.PGTable = pqErr.Table
		d.PGDetail = pqErr.Detail
		d.PGMessage = pqErr.Message
	}
	return d
}

// Fields flattens the dump for logger.WithFields.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{"error_chain": d.Chain}
	if d.Code != "" {
		fields["error_code"] = string(d.Code)
	}
	if d.PGCode != "" {
		fields["pg_code"] = d.PGCode
		fields["pg_constraint"] = d.PGConstraint
		fields["pg_table"] = d.PGTable
		fields["pg_detail"] = d.PGDetail
	}
	return fields
}

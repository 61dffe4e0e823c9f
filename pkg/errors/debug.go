package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Diagnosis flattens an error chain into loggable fields, including the
// SQLSTATE payload when a Postgres driver error sits somewhere in the chain.
type Diagnosis struct {
	Message string   `json:"message"`
	Code    Code     `json:"code,omitempty"`
	Chain   []string `json:"chain,omitempty"`

	SQLState   string `json:"sql_state,omitempty"`
	Constraint string `json:"constraint,omitempty"`
	Table      string `json:"table,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

// Diagnose builds a Diagnosis for err. A nil error yields the zero value.
func Diagnose(err error) Diagnosis {
	if err == nil {
		return Diagnosis{}
	}

	d := Diagnosis{Message: err.Error()}
	if typed := As(err); typed != nil {
		d.Code = typed.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T", e))
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		d.SQLState = pgErr.Code
		d.Constraint = pgErr.ConstraintName
		d.Table = pgErr.TableName
		d.Detail = pgErr.Detail
		return d
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		d.SQLState = string(pqErr.Code)
		d.Constraint = pqErr.Constraint
		d.Table = pqErr.Table
		d.Detail = pqErr.Detail
	}
	return d
}

// Fields renders the diagnosis as logger fields.
func (d Diagnosis) Fields() map[string]any {
	fields := map[string]any{"error_chain": d.Chain}
	if d.Code != "" {
		fields["error_code"] = string(d.Code)
	}
	if d.SQLState != "" {
		fields["sql_state"] = d.SQLState
	}
	if d.Constraint != "" {
		fields["constraint"] = d.Constraint
	}
	if d.Table != "" {
		fields["table"] = d.Table
	}
	return fields
}

package database

import "database/sql"

// NullString converts an optional string to a sql.NullString (NULL when nil)
func NullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// StringPtr converts a sql.NullString to a pointer (nil if not valid)
func StringPtr(n sql.NullString) *string {
	if n.Valid {
		return &n.String
	}
	return nil
}

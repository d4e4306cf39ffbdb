package db

import (
	"strconv"
	"strings"
	"time"

	mssql "github.com/microsoft/go-mssqldb"
)

const dateOnly = "2006-01-02"

// convertValue turns a driver value into something encoding/json renders
// the way the tools expect.
func convertValue(dbType string, v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case time.Time:
		if dbType == "DATE" {
			return val.Format(dateOnly)
		}
		return val.Format(time.RFC3339)
	case []byte:
		return convertBytes(dbType, val)
	default:
		return val
	}
}

func convertBytes(dbType string, b []byte) any {
	switch dbType {
	case "DECIMAL", "NUMERIC", "MONEY", "SMALLMONEY":
		f, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			return string(b)
		}
		return f
	case "UNIQUEIDENTIFIER":
		var id mssql.UniqueIdentifier
		if err := id.Scan(b); err != nil {
			return strings.ToValidUTF8(string(b), "")
		}
		return id.String()
	default:
		return strings.ToValidUTF8(string(b), "")
	}
}

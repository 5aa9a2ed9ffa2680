package testutil

import (
	"database/sql"
	"fmt"
	"testing"

	configlibsql "storywatch-backend/lib/configutil/libsql"
	"storywatch-backend/lib/telemetry"
)

type ServiceParams struct {
	Name string
	// if unspecified, it will skip setting up a db
	DbSchema string
	// if unspecified, it will use `:memory:`
	DbPath string
}

type ServiceResult struct {
	DB *sql.DB
}

func SetupService(t testing.TB, params ServiceParams) (ServiceResult, func()) {
	cleanup := telemetry.SetupForTesting(t, fmt.Sprintf("test:%s", params.Name))

	if params.DbSchema == "" {
		return ServiceResult{}, cleanup
	}

	dbpath := ":memory:"
	if params.DbPath != "" {
		dbpath = params.DbPath
	}
	db, err := configlibsql.Struct{File: dbpath}.OpenDB(params.DbSchema)
	if err != nil {
		t.Fatal(err)
	}

	return ServiceResult{DB: db}, func() {
		db.Close()
		cleanup()
	}
}

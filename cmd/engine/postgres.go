package main

import (
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/sawpanic/tradingengine/internal/audit"
)

func newPostgresSink(dsn string) (*audit.PostgresSink, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, err
	}
	return audit.NewPostgresSink(db, 3*time.Second), nil
}

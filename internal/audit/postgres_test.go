package audit

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/tradingengine/internal/model"
)

func TestPostgresSink_WriteExecutesUpsert(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	db := sqlx.NewDb(mockDB, "postgres")
	sink := NewPostgresSink(db, 5*time.Second)

	mock.ExpectExec("INSERT INTO decision_receipts").
		WithArgs("req-1", "AAPL", "EXECUTE", "v1.0.0", "hash123", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	e := Entry{
		RequestID: "req-1",
		Ticker:    "AAPL",
		Packet: model.DecisionPacket{
			Decision:      model.DecisionExecute,
			EngineVersion: "v1.0.0",
			ConfigHash:    "hash123",
			Timestamp:     model.UnixMillis(time.Now()),
		},
	}

	err = sink.Write(context.Background(), e)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSink_WritePropagatesDBError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	db := sqlx.NewDb(mockDB, "postgres")
	sink := NewPostgresSink(db, 5*time.Second)

	mock.ExpectExec("INSERT INTO decision_receipts").
		WillReturnError(assert.AnError)

	err = sink.Write(context.Background(), entryFor("req-2"))
	assert.Error(t, err)
}

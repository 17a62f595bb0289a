package audit

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestRecorder_RecordTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	recorder := NewRecorder(db)

	t.Run("appends event inside the caller's transaction", func(t *testing.T) {
		mock.ExpectBegin()
		tx, _ := db.Begin()

		mock.ExpectExec("INSERT INTO audit_events").
			WithArgs("admin1", "TRANSFER_APPROVE", "transaction", "tx1", "transfer approved",
				sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := recorder.RecordTx(tx, "admin1", "TRANSFER_APPROVE", "transaction", "tx1",
			"transfer approved", map[string]any{"comment": "ok"})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil metadata stores a null column", func(t *testing.T) {
		mock.ExpectBegin()
		tx, _ := db.Begin()

		mock.ExpectExec("INSERT INTO audit_events").
			WithArgs("user1", "TRANSFER_CREATE", "transaction", "tx2", "transfer created",
				nil, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := recorder.RecordTx(tx, "user1", "TRANSFER_CREATE", "transaction", "tx2",
			"transfer created", nil)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRecorder_Record(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	recorder := NewRecorder(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO audit_events").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err = recorder.Record("admin1", "ADMIN_GRANT", "transaction", "tx3", "grant recorded", nil)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package booking

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"gomoldova-backend/internal/domain"
	"gomoldova-backend/internal/models"
)

func newMockStore(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm open error: %v", err)
	}
	return NewGormStore(gdb), mock
}

func bookingRow(id, tripID, userID uint, status models.BookingStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "trip_id", "user_id", "status"}).AddRow(id, tripID, userID, string(status))
}

func TestMigrateCreatesPartialUniqueIndex(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`CREATE UNIQUE INDEX IF NOT EXISTS uniq_active_booking\s+ON bookings \(trip_id, user_id\)\s+WHERE status IN \('pending', 'accepted'\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := Migrate(store.db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGormFindActive(t *testing.T) {
	ctx := context.Background()

	t.Run("none", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE trip_id = \$1 AND user_id = \$2 AND status IN`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		b, err := store.FindActive(ctx, 1, 2)
		if err != nil || b != nil {
			t.Fatalf("got %+v, %v; want nil, nil", b, err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
	})

	t.Run("found", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE`).
			WillReturnRows(bookingRow(5, 1, 2, models.BookingStatusAccepted))

		b, err := store.FindActive(ctx, 1, 2)
		if err != nil || b == nil || b.Status != models.BookingStatusAccepted {
			t.Fatalf("got %+v, %v", b, err)
		}
	})

	t.Run("storage failure", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE`).
			WillReturnError(errors.New("connection reset by peer"))

		if _, err := store.FindActive(ctx, 1, 2); !domain.IsStorage(err) {
			t.Fatalf("expected storage error, got %v", err)
		}
	})
}

func TestGormInsertPending(t *testing.T) {
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`INSERT INTO "bookings"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

		b, err := store.InsertPending(ctx, 1, 2)
		if err != nil {
			t.Fatalf("InsertPending: %v", err)
		}
		if b.ID != 7 || b.Status != models.BookingStatusPending {
			t.Fatalf("unexpected booking %+v", b)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
	})

	t.Run("unique violation", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`INSERT INTO "bookings"`).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uniq_active_booking"})

		if _, err := store.InsertPending(ctx, 1, 2); !errors.Is(err, ErrUniqueViolation) {
			t.Fatalf("expected ErrUniqueViolation, got %v", err)
		}
	})
}

func TestGormAccept(t *testing.T) {
	ctx := context.Background()

	expectLockedRead := func(mock sqlmock.Sqlmock, seats int, status models.BookingStatus, accepted int) {
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT "id","trip_id" FROM "bookings"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "trip_id"}).AddRow(9, 1))
		mock.ExpectQuery(`SELECT \* FROM "trips" WHERE .* FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "seats", "status"}).AddRow(1, seats, "scheduled"))
		mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE`).
			WillReturnRows(bookingRow(9, 1, 2, status))
		if status == models.BookingStatusPending {
			mock.ExpectQuery(`SELECT count\(\*\) FROM "bookings"`).
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(accepted))
		}
	}

	t.Run("ok", func(t *testing.T) {
		store, mock := newMockStore(t)
		expectLockedRead(mock, 2, models.BookingStatusPending, 1)
		mock.ExpectExec(`UPDATE "bookings" SET "status"=\$1`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		b, err := store.Accept(ctx, 9)
		if err != nil {
			t.Fatalf("Accept: %v", err)
		}
		if b.Status != models.BookingStatusAccepted {
			t.Fatalf("status = %s", b.Status)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
	})

	t.Run("no seats", func(t *testing.T) {
		store, mock := newMockStore(t)
		expectLockedRead(mock, 1, models.BookingStatusPending, 1)
		mock.ExpectRollback()

		_, err := store.Accept(ctx, 9)
		var noSeats NoSeatsAvailableError
		if !errors.As(err, &noSeats) {
			t.Fatalf("expected NoSeatsAvailableError, got %v", err)
		}
		if noSeats.Available != 0 {
			t.Fatalf("Available = %d", noSeats.Available)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
	})

	t.Run("not pending", func(t *testing.T) {
		store, mock := newMockStore(t)
		expectLockedRead(mock, 3, models.BookingStatusCancelled, 0)
		mock.ExpectRollback()

		if _, err := store.Accept(ctx, 9); !domain.IsInvalidTransition(err) {
			t.Fatalf("expected invalid transition, got %v", err)
		}
	})

	t.Run("missing booking", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT "id","trip_id" FROM "bookings"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "trip_id"}))
		mock.ExpectRollback()

		if _, err := store.Accept(ctx, 9); !domain.IsNotFound(err) {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}

func TestGormTransition(t *testing.T) {
	ctx := context.Background()
	by := uint(2)

	t.Run("applied", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(`UPDATE "bookings" SET .* WHERE id = \$\d+ AND status IN`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE`).
			WillReturnRows(bookingRow(9, 1, 2, models.BookingStatusCancelled))

		b, err := store.Transition(ctx, 9, Change{
			From:        []models.BookingStatus{models.BookingStatusPending, models.BookingStatusAccepted},
			To:          models.BookingStatusCancelled,
			CancelledBy: &by,
		})
		if err != nil || b.Status != models.BookingStatusCancelled {
			t.Fatalf("got %+v, %v", b, err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
	})

	t.Run("lost race", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(`UPDATE "bookings" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE`).
			WillReturnRows(bookingRow(9, 1, 2, models.BookingStatusRejected))

		_, err := store.Transition(ctx, 9, Change{
			From: []models.BookingStatus{models.BookingStatusPending},
			To:   models.BookingStatusRejected,
		})
		var it domain.InvalidTransitionError
		if !errors.As(err, &it) || it.From != string(models.BookingStatusRejected) {
			t.Fatalf("expected invalid transition from rejected, got %v", err)
		}
	})
}

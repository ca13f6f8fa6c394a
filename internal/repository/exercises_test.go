package repository

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/atinyakov/GymKeeper/internal/models"
)

func setupExerciseMock(t *testing.T) (*PostgresExerciseRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresExerciseRepository(db), mock
}

var exerciseCols = []string{"id", "name", "series", "repetitions", "group_name", "demo", "thumb"}

func TestListGroups(t *testing.T) {
	repo, mock := setupExerciseMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT group_name FROM exercises ORDER BY group_name`)).
		WillReturnRows(sqlmock.NewRows([]string{"group_name"}).AddRow("back").AddRow("legs"))

	got, err := repo.ListGroups(context.Background())
	if err != nil {
		t.Fatalf("ListGroups returned error: %v", err)
	}
	if want := []string{"back", "legs"}; !reflect.DeepEqual(got, want) {
		t.Errorf("groups = %v; want %v", got, want)
	}
}

func TestListByGroup(t *testing.T) {
	repo, mock := setupExerciseMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM exercises WHERE group_name = $1 ORDER BY name`)).
		WithArgs("back").
		WillReturnRows(sqlmock.NewRows(exerciseCols).
			AddRow("e1", "Row", 3, 12, "back", "row.gif", "row.png"))

	got, err := repo.ListByGroup(context.Background(), "back")
	if err != nil {
		t.Fatalf("ListByGroup returned error: %v", err)
	}
	want := []models.Exercise{{ID: "e1", Name: "Row", Series: 3, Repetitions: 12, Group: "back", Demo: "row.gif", Thumb: "row.png"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("exercises = %+v; want %+v", got, want)
	}
}

func TestListByGroup_Empty(t *testing.T) {
	repo, mock := setupExerciseMock(t)
	mock.ExpectQuery("FROM exercises").WillReturnRows(sqlmock.NewRows(exerciseCols))

	got, err := repo.ListByGroup(context.Background(), "arms")
	if err != nil {
		t.Fatalf("ListByGroup returned error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("exercises = %#v; want empty non-nil slice", got)
	}
}

func TestGetExercise(t *testing.T) {
	repo, mock := setupExerciseMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM exercises WHERE id = $1`)).
		WithArgs("e1").
		WillReturnRows(sqlmock.NewRows(exerciseCols).AddRow("e1", "Row", 3, 12, "back", "", ""))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM exercises WHERE id = $1`)).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	ex, err := repo.GetExercise(context.Background(), "e1")
	if err != nil || ex.Name != "Row" {
		t.Fatalf("GetExercise = %+v, %v", ex, err)
	}
	if _, err := repo.GetExercise(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v; want ErrNotFound", err)
	}
}

func TestUpsertExercises(t *testing.T) {
	repo, mock := setupExerciseMock(t)
	exercises := []models.Exercise{
		{ID: "e1", Name: "Row", Series: 3, Repetitions: 12, Group: "back"},
		{ID: "e2", Name: "Squat", Series: 4, Repetitions: 10, Group: "legs"},
	}

	mock.ExpectBegin()
	for _, ex := range exercises {
		mock.ExpectExec("INSERT INTO exercises").
			WithArgs(ex.ID, ex.Name, ex.Series, ex.Repetitions, ex.Group, ex.Demo, ex.Thumb).
			WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectCommit()

	if err := repo.UpsertExercises(context.Background(), exercises); err != nil {
		t.Fatalf("UpsertExercises returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUpsertExercises_RollbackOnError(t *testing.T) {
	repo, mock := setupExerciseMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO exercises").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := repo.UpsertExercises(context.Background(), []models.Exercise{{ID: "e1"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

package model

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"

	"github.com/gitm/javango/internal/datasource"
	"github.com/gitm/javango/internal/datasource/mocks"
	"github.com/gitm/javango/internal/query"
	"github.com/gitm/javango/internal/record"
)

var bookFields = Definition{
	Name:   "books_books",
	Fields: []string{"id", "isbn", "title", "authors"},
}

type ModelTestSuite struct {
	suite.Suite

	ctrl *gomock.Controller
	ds   *mocks.MockDataSource
	m    *Model
	ctx  context.Context
}

func (s *ModelTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.ds = mocks.NewMockDataSource(s.ctrl)
	s.ctx = context.Background()

	m, err := New(bookFields, s.ds)
	s.Require().NoError(err)
	s.m = m
}

func (s *ModelTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestModelTestSuite(t *testing.T) {
	suite.Run(t, new(ModelTestSuite))
}

func (s *ModelTestSuite) TestGetAllIssuesBareQuery() {
	want := record.NewRecordSet()
	s.ds.EXPECT().Retrieve(s.ctx, query.New("books_books")).Return(want, nil)

	got, err := s.m.GetAll(s.ctx)
	s.NoError(err)
	s.Same(want, got)
}

// Scenario A
func (s *ModelTestSuite) TestGetWithFilterPassesFilterThrough() {
	filter := query.FilterFromStrings(map[string]string{"authors": "Orwell"})
	expected := query.New("books_books").WithFilter(filter)
	s.ds.EXPECT().Retrieve(s.ctx, expected).Return(record.NewRecordSet(), nil)

	got, err := s.m.GetWithFilter(s.ctx, filter)
	s.NoError(err)
	s.Equal(0, got.Len())
	s.Equal("[]", got.Encode())
}

// Scenario B
func (s *ModelTestSuite) TestGetWithFilterRejectsUndeclaredFields() {
	s.ds.EXPECT().Retrieve(gomock.Any(), gomock.Any()).Times(0)

	_, err := s.m.GetWithFilterMap(s.ctx, map[string]string{"publisher": "Penguin"})

	var fe *InvalidFieldError
	s.Require().True(errors.As(err, &fe))
	s.Equal("books_books", fe.Model)
	s.Equal([]string{"publisher"}, fe.Fields)
}

func (s *ModelTestSuite) TestInvalidFieldsAreSetDifference() {
	s.ds.EXPECT().Retrieve(gomock.Any(), gomock.Any()).Times(0)

	f := query.NewFilter(
		query.Term{Field: "zeta", Value: record.String("1")},
		query.Term{Field: "title", Value: record.String("x")},
		query.Term{Field: "alpha", Value: record.String("2")},
	)
	_, err := s.m.GetWithFilter(s.ctx, f)

	var fe *InvalidFieldError
	s.Require().True(errors.As(err, &fe))
	s.Equal([]string{"alpha", "zeta"}, fe.Fields)
	s.Equal("model books_books does not have field(s) alpha, zeta", fe.Error())
}

func (s *ModelTestSuite) TestValidationIsIdempotent() {
	s.ds.EXPECT().Retrieve(gomock.Any(), gomock.Any()).Times(0)
	filter := map[string]string{"publisher": "Penguin", "year": "1949", "title": "x"}

	_, err1 := s.m.GetWithFilterMap(s.ctx, filter)
	_, err2 := s.m.GetWithFilterMap(s.ctx, filter)

	s.True(IsInvalidFieldError(err1))
	s.Equal(err1, err2)
}

func (s *ModelTestSuite) TestEmptyFilterBehavesLikeGetAll() {
	s.ds.EXPECT().Retrieve(s.ctx, query.New("books_books")).Return(record.NewRecordSet(), nil).Times(2)

	_, err := s.m.GetWithFilter(s.ctx, nil)
	s.NoError(err)
	_, err = s.m.GetWithFilterMap(s.ctx, map[string]string{})
	s.NoError(err)
}

func (s *ModelTestSuite) TestRetrievalErrorPropagates() {
	backendErr := datasource.NewRetrievalError("books_books", errors.New("connection refused"))
	s.ds.EXPECT().Retrieve(gomock.Any(), gomock.Any()).Return(nil, backendErr)

	set, err := s.m.GetAll(s.ctx)
	s.Nil(set)
	s.Same(backendErr, err)
}

// Scenario C
func (s *ModelTestSuite) TestCreateNewStampsCollectionAndKeepsOrder() {
	r := record.New().Set("isbn", record.String("123")).Set("title", record.String("Animal Farm"))

	s.ds.EXPECT().Create(s.ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, got *record.Record) error {
			s.Equal("books_books", got.CollectionName())
			s.Equal([]string{"isbn", "title"}, got.Keys())
			s.Equal([]record.Value{record.String("123"), record.String("Animal Farm")}, got.Values())
			return nil
		})

	s.NoError(s.m.CreateNew(s.ctx, r))
}

func (s *ModelTestSuite) TestCreateNewOverwritesPriorTag() {
	r := record.NewIn("someone_else").Set("isbn", record.String("123"))

	s.ds.EXPECT().Create(s.ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, got *record.Record) error {
			s.Equal("books_books", got.CollectionName())
			return nil
		})

	s.NoError(s.m.CreateNew(s.ctx, r))
	s.Equal("books_books", r.CollectionName())
}

// Scenario D
func (s *ModelTestSuite) TestCreateErrorPropagatesUnchanged() {
	backendErr := datasource.NewCreateError("books_books", errors.New("duplicate key"))
	s.ds.EXPECT().Create(gomock.Any(), gomock.Any()).Return(backendErr)

	err := s.m.CreateNew(s.ctx, record.New().Set("isbn", record.String("123")))

	s.Same(backendErr, err)
	var ce *datasource.CreateError
	s.Require().True(errors.As(err, &ce))
	s.Equal("duplicate key", ce.Diagnostic())
}

func (s *ModelTestSuite) TestCreateNewDoesNotValidateByDefault() {
	s.ds.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	err := s.m.CreateNew(s.ctx, record.New().Set("publisher", record.String("Penguin")))
	s.NoError(err)
}

func (s *ModelTestSuite) TestCreateValidationOption() {
	m, err := New(bookFields, s.ds, WithCreateValidation())
	s.Require().NoError(err)
	s.ds.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

	err = m.CreateNew(s.ctx, record.New().Set("title", record.String("x")).Set("publisher", record.String("Penguin")))

	var fe *InvalidFieldError
	s.Require().True(errors.As(err, &fe))
	s.Equal([]string{"publisher"}, fe.Fields)
}

func (s *ModelTestSuite) TestCreateNewNilRecord() {
	s.ds.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

	err := s.m.CreateNew(s.ctx, nil)
	s.ErrorIs(err, datasource.ErrEmptyRecord)
}

func (s *ModelTestSuite) TestAccessors() {
	s.Equal("books_books", s.m.Name())
	s.Equal([]string{"id", "isbn", "title", "authors"}, s.m.Fields())

	fields := s.m.Fields()
	fields[0] = "changed"
	s.Equal("id", s.m.Fields()[0])
}

func TestDefinitionValidate(t *testing.T) {
	testCases := []struct {
		name    string
		def     Definition
		wantErr bool
	}{
		{"ok", bookFields, false},
		{"no name", Definition{Fields: []string{"a"}}, true},
		{"no fields", Definition{Name: "m"}, true},
		{"empty field", Definition{Name: "m", Fields: []string{"a", ""}}, true},
		{"duplicate field", Definition{Name: "m", Fields: []string{"a", "a"}}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.def.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestNewRequiresDataSource(t *testing.T) {
	_, err := New(bookFields, nil)
	if err == nil {
		t.Fatal("expected error for nil data source")
	}
}

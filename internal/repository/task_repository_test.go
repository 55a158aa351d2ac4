package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mtsuji/kanban-board-api/internal/models"
)

// TaskRepositoryTestSuite defines the test suite for GormTaskRepository
type TaskRepositoryTestSuite struct {
	suite.Suite
	db   *gorm.DB
	repo TaskRepository
}

// SetupTest runs before each test
func (suite *TaskRepositoryTestSuite) SetupTest() {
	var err error

	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	err = suite.db.AutoMigrate(
		&models.User{},
		&models.Board{},
		&models.Label{},
		&models.Task{},
		&models.TaskAssignment{},
		&models.TaskDay{},
	)
	suite.Require().NoError(err)

	suite.repo = NewTaskRepository(suite.db)
}

// TearDownTest runs after each test
func (suite *TaskRepositoryTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *TaskRepositoryTestSuite) createTask(title string, boardID uint64, stack models.Stack, status models.TaskStatus, position int, pinned bool, age time.Duration) *models.Task {
	task := &models.Task{
		Title:     title,
		BoardID:   boardID,
		Stack:     stack,
		Status:    status,
		Position:  position,
		Pinned:    pinned,
		CreatorID: 1,
		UpdatedAt: time.Now().Add(-age),
	}
	suite.Require().NoError(suite.db.Create(task).Error)
	return task
}

func titles(tasks []models.Task) []string {
	names := make([]string, len(tasks))
	for i, task := range tasks {
		names[i] = task.Title
	}
	return names
}

func (suite *TaskRepositoryTestSuite) TestListPartition_CanonicalOrder() {
	suite.createTask("third", 1, models.StackTodo, models.TaskStatusPublished, 2, false, time.Hour)
	suite.createTask("second", 1, models.StackTodo, models.TaskStatusPublished, 1, false, time.Hour)
	suite.createTask("first", 1, models.StackTodo, models.TaskStatusPublished, 5, true, time.Hour)

	tasks, err := suite.repo.ListPartition(1, models.StackTodo, 0)
	suite.Require().NoError(err)

	assert.Equal(suite.T(), []string{"first", "second", "third"}, titles(tasks))
}

func (suite *TaskRepositoryTestSuite) TestListPartition_RecencyBreaksPositionTies() {
	suite.createTask("older", 1, models.StackTodo, models.TaskStatusPublished, 1, false, 2*time.Hour)
	suite.createTask("newer", 1, models.StackTodo, models.TaskStatusPublished, 1, false, time.Hour)

	tasks, err := suite.repo.ListPartition(1, models.StackTodo, 0)
	suite.Require().NoError(err)

	assert.Equal(suite.T(), []string{"newer", "older"}, titles(tasks))
}

func (suite *TaskRepositoryTestSuite) TestListPartition_PublishedOnly() {
	suite.createTask("published", 1, models.StackTodo, models.TaskStatusPublished, 1, false, time.Hour)
	suite.createTask("draft", 1, models.StackTodo, models.TaskStatusDraft, 0, false, time.Hour)
	suite.createTask("archived", 1, models.StackTodo, models.TaskStatusArchived, 2, false, time.Hour)

	tasks, err := suite.repo.ListPartition(1, models.StackTodo, 0)
	suite.Require().NoError(err)

	assert.Equal(suite.T(), []string{"published"}, titles(tasks))
}

func (suite *TaskRepositoryTestSuite) TestListPartition_ScopedToPartition() {
	suite.createTask("here", 1, models.StackTodo, models.TaskStatusPublished, 1, false, time.Hour)
	suite.createTask("other-stack", 1, models.StackDone, models.TaskStatusPublished, 1, false, time.Hour)
	suite.createTask("other-board", 2, models.StackTodo, models.TaskStatusPublished, 1, false, time.Hour)

	tasks, err := suite.repo.ListPartition(1, models.StackTodo, 0)
	suite.Require().NoError(err)

	assert.Equal(suite.T(), []string{"here"}, titles(tasks))
}

func (suite *TaskRepositoryTestSuite) TestListPartition_ExcludesGivenTask() {
	suite.createTask("A", 1, models.StackTodo, models.TaskStatusPublished, 1, false, time.Hour)
	doomed := suite.createTask("B", 1, models.StackTodo, models.TaskStatusPublished, 2, false, time.Hour)
	suite.createTask("C", 1, models.StackTodo, models.TaskStatusPublished, 3, false, time.Hour)

	tasks, err := suite.repo.ListPartition(1, models.StackTodo, doomed.ID)
	suite.Require().NoError(err)

	assert.Equal(suite.T(), []string{"A", "C"}, titles(tasks))
}

func (suite *TaskRepositoryTestSuite) TestReplaceAssignments_PreservesListOrder() {
	task := suite.createTask("A", 1, models.StackTodo, models.TaskStatusPublished, 1, false, time.Hour)
	for _, name := range []string{"alice", "bob", "carol"} {
		suite.Require().NoError(suite.db.Create(&models.User{Username: name, PasswordHash: "x"}).Error)
	}

	suite.Require().NoError(suite.repo.ReplaceAssignments(task.ID, []uint64{3, 1, 2}))

	reloaded, err := suite.repo.FindByID(task.ID, "Assignments")
	suite.Require().NoError(err)
	assert.Equal(suite.T(), []uint64{3, 1, 2}, reloaded.AssigneeIDs())
}

// TestTaskRepositoryTestSuite runs the test suite
func TestTaskRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(TaskRepositoryTestSuite))
}

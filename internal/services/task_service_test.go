package services

import (
	"io"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mtsuji/kanban-board-api/internal/events"
	"github.com/mtsuji/kanban-board-api/internal/models"
	"github.com/mtsuji/kanban-board-api/internal/repository"
)

// TaskServiceTestSuite defines the test suite for TaskService
type TaskServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	service  *TaskService
	recorded []events.Event
}

// SetupTest runs before each test
func (suite *TaskServiceTestSuite) SetupTest() {
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

	log := logrus.New()
	log.SetOutput(io.Discard)

	suite.recorded = nil
	bus := events.NewBus()
	record := func(e events.Event) { suite.recorded = append(suite.recorded, e) }
	for _, name := range []string{
		events.NameTaskCreated,
		events.NameTaskUpdated,
		events.NameTaskCompleted,
		events.NameStackTransition,
		events.NameUserAssigned,
	} {
		bus.Subscribe(name, record)
	}

	taskRepo := repository.NewTaskRepository(suite.db)
	boardRepo := repository.NewBoardRepository(suite.db)
	reconciler := NewOrderReconciler(suite.db, taskRepo, log)

	suite.service = NewTaskService(taskRepo, boardRepo, reconciler, bus, log)
}

// TearDownTest runs after each test
func (suite *TaskServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *TaskServiceTestSuite) createTestUser(username string) *models.User {
	user := &models.User{
		Username:     username,
		PasswordHash: "hashedpassword",
	}
	suite.Require().NoError(suite.db.Create(user).Error)
	return user
}

func (suite *TaskServiceTestSuite) createTestBoard(name string) *models.Board {
	board := &models.Board{
		Name:    name,
		Slug:    name,
		OwnerID: 1,
	}
	suite.Require().NoError(suite.db.Create(board).Error)
	return board
}

func (suite *TaskServiceTestSuite) createPublished(title string, boardID uint64, stack models.Stack) *models.Task {
	task, err := suite.service.CreateTask(CreateTaskInput{
		Title:     title,
		Stack:     stack,
		BoardID:   boardID,
		CreatorID: 1,
	})
	suite.Require().NoError(err)
	return task
}

// eventsNamed filters the recorded events by name
func (suite *TaskServiceTestSuite) eventsNamed(name string) []events.Event {
	var matched []events.Event
	for _, e := range suite.recorded {
		if e.EventName() == name {
			matched = append(matched, e)
		}
	}
	return matched
}

func (suite *TaskServiceTestSuite) clearEvents() {
	suite.recorded = nil
}

func (suite *TaskServiceTestSuite) reload(id uint64) models.Task {
	var task models.Task
	suite.Require().NoError(suite.db.First(&task, id).Error)
	return task
}

func (suite *TaskServiceTestSuite) TestCreateTask_AppendsToPartition() {
	board := suite.createTestBoard("main")

	a := suite.createPublished("A", board.ID, models.StackTodo)
	b := suite.createPublished("B", board.ID, models.StackTodo)
	c := suite.createPublished("C", board.ID, models.StackTodo)

	assert.Equal(suite.T(), 1, a.Position)
	assert.Equal(suite.T(), 2, b.Position)
	assert.Equal(suite.T(), 3, c.Position)
	assert.Len(suite.T(), suite.eventsNamed(events.NameTaskCreated), 3)
}

func (suite *TaskServiceTestSuite) TestCreateTask_DraftTakesNoSlot() {
	board := suite.createTestBoard("main")

	draft, err := suite.service.CreateTask(CreateTaskInput{
		Title:     "draft",
		Stack:     models.StackTodo,
		BoardID:   board.ID,
		CreatorID: 1,
		Draft:     true,
	})
	suite.Require().NoError(err)

	published := suite.createPublished("published", board.ID, models.StackTodo)

	assert.Equal(suite.T(), models.TaskStatusDraft, draft.Status)
	assert.Equal(suite.T(), 0, draft.Position)
	assert.Equal(suite.T(), 1, published.Position)
}

func (suite *TaskServiceTestSuite) TestCreateTask_Validation() {
	board := suite.createTestBoard("main")

	_, err := suite.service.CreateTask(CreateTaskInput{Stack: models.StackTodo, BoardID: board.ID})
	assert.ErrorIs(suite.T(), err, ErrTitleRequired)

	_, err = suite.service.CreateTask(CreateTaskInput{Title: "x", BoardID: board.ID})
	assert.ErrorIs(suite.T(), err, ErrStackRequired)

	_, err = suite.service.CreateTask(CreateTaskInput{Title: "x", Stack: "shipped", BoardID: board.ID})
	assert.ErrorIs(suite.T(), err, ErrInvalidStack)

	_, err = suite.service.CreateTask(CreateTaskInput{Title: "x", Stack: models.StackTodo})
	assert.ErrorIs(suite.T(), err, ErrBoardRequired)

	_, err = suite.service.CreateTask(CreateTaskInput{Title: "x", Stack: models.StackTodo, BoardID: 999})
	assert.ErrorIs(suite.T(), err, ErrBoardNotFound)

	assert.Empty(suite.T(), suite.eventsNamed(events.NameTaskCreated))
}

func (suite *TaskServiceTestSuite) TestUpdateTask_NoStackChangeEmitsNoTransition() {
	board := suite.createTestBoard("main")
	task := suite.createPublished("A", board.ID, models.StackTodo)
	suite.clearEvents()

	title := "A renamed"
	stack := models.StackTodo
	_, err := suite.service.UpdateTask(task.ID, UpdateTaskInput{Title: &title, Stack: &stack})
	suite.Require().NoError(err)

	assert.Empty(suite.T(), suite.eventsNamed(events.NameStackTransition))
	assert.Empty(suite.T(), suite.eventsNamed(events.NameTaskCompleted))
	assert.Len(suite.T(), suite.eventsNamed(events.NameTaskUpdated), 1)
}

func (suite *TaskServiceTestSuite) TestUpdateTask_StackToDone() {
	board := suite.createTestBoard("main")
	task := suite.createPublished("A", board.ID, models.StackTodo)
	suite.clearEvents()

	done := models.StackDone
	_, err := suite.service.UpdateTask(task.ID, UpdateTaskInput{Stack: &done})
	suite.Require().NoError(err)

	transitions := suite.eventsNamed(events.NameStackTransition)
	suite.Require().Len(transitions, 1)
	assert.Equal(suite.T(), events.StackTransition{
		TaskID: task.ID,
		From:   models.StackTodo,
		To:     models.StackDone,
	}, transitions[0])

	completed := suite.eventsNamed(events.NameTaskCompleted)
	suite.Require().Len(completed, 1)
	assert.Equal(suite.T(), events.TaskCompleted{TaskID: task.ID, Stack: models.StackDone}, completed[0])

	assert.Len(suite.T(), suite.eventsNamed(events.NameTaskUpdated), 1)
}

func (suite *TaskServiceTestSuite) TestUpdateTask_StackToInProgressNoCompletion() {
	board := suite.createTestBoard("main")
	task := suite.createPublished("A", board.ID, models.StackTodo)
	suite.clearEvents()

	inProgress := models.StackInProgress
	_, err := suite.service.UpdateTask(task.ID, UpdateTaskInput{Stack: &inProgress})
	suite.Require().NoError(err)

	assert.Len(suite.T(), suite.eventsNamed(events.NameStackTransition), 1)
	assert.Empty(suite.T(), suite.eventsNamed(events.NameTaskCompleted))
}

func (suite *TaskServiceTestSuite) TestUpdateTask_StackChangeReconcilesBothPartitions() {
	board := suite.createTestBoard("main")
	a := suite.createPublished("A", board.ID, models.StackTodo)
	b := suite.createPublished("B", board.ID, models.StackTodo)
	c := suite.createPublished("C", board.ID, models.StackTodo)
	d := suite.createPublished("D", board.ID, models.StackDone)

	done := models.StackDone
	_, err := suite.service.UpdateTask(b.ID, UpdateTaskInput{Stack: &done})
	suite.Require().NoError(err)

	assert.Equal(suite.T(), 1, suite.reload(a.ID).Position)
	assert.Equal(suite.T(), 2, suite.reload(c.ID).Position)
	assert.Equal(suite.T(), 1, suite.reload(d.ID).Position)
	assert.Equal(suite.T(), 2, suite.reload(b.ID).Position)
}

func (suite *TaskServiceTestSuite) TestUpdateTask_ArchivedRejected() {
	board := suite.createTestBoard("main")
	task := suite.createPublished("A", board.ID, models.StackTodo)
	_, err := suite.service.ArchiveTask(task.ID)
	suite.Require().NoError(err)
	suite.clearEvents()

	title := "renamed"
	_, err = suite.service.UpdateTask(task.ID, UpdateTaskInput{Title: &title})
	assert.ErrorIs(suite.T(), err, ErrTaskArchived)
	assert.Empty(suite.T(), suite.recorded)
}

func (suite *TaskServiceTestSuite) TestAssignUsers_EmitsForNewOnly() {
	alice := suite.createTestUser("alice")
	bob := suite.createTestUser("bob")
	carol := suite.createTestUser("carol")
	board := suite.createTestBoard("main")

	task, err := suite.service.CreateTask(CreateTaskInput{
		Title:         "A",
		Stack:         models.StackTodo,
		BoardID:       board.ID,
		CreatorID:     alice.ID,
		AssignedUsers: []uint64{alice.ID},
	})
	suite.Require().NoError(err)
	suite.clearEvents()

	_, err = suite.service.AssignUsers(task.ID, []uint64{alice.ID, bob.ID, carol.ID})
	suite.Require().NoError(err)

	assigned := suite.eventsNamed(events.NameUserAssigned)
	suite.Require().Len(assigned, 2)
	assert.Equal(suite.T(), events.UserAssigned{TaskID: task.ID, UserID: bob.ID}, assigned[0])
	assert.Equal(suite.T(), events.UserAssigned{TaskID: task.ID, UserID: carol.ID}, assigned[1])
	assert.Len(suite.T(), suite.eventsNamed(events.NameTaskUpdated), 1)
}

func (suite *TaskServiceTestSuite) TestAssignUsers_UnknownUserRejected() {
	board := suite.createTestBoard("main")
	task := suite.createPublished("A", board.ID, models.StackTodo)

	_, err := suite.service.AssignUsers(task.ID, []uint64{999})
	assert.ErrorIs(suite.T(), err, ErrInvalidAssignee)
}

func (suite *TaskServiceTestSuite) TestUpdateTask_AssignmentDiffInListOrder() {
	alice := suite.createTestUser("alice")
	bob := suite.createTestUser("bob")
	board := suite.createTestBoard("main")
	task := suite.createPublished("A", board.ID, models.StackTodo)
	suite.clearEvents()

	next := []uint64{bob.ID, alice.ID}
	_, err := suite.service.UpdateTask(task.ID, UpdateTaskInput{AssignedUsers: &next})
	suite.Require().NoError(err)

	assigned := suite.eventsNamed(events.NameUserAssigned)
	suite.Require().Len(assigned, 2)
	assert.Equal(suite.T(), events.UserAssigned{TaskID: task.ID, UserID: bob.ID}, assigned[0])
	assert.Equal(suite.T(), events.UserAssigned{TaskID: task.ID, UserID: alice.ID}, assigned[1])
}

func (suite *TaskServiceTestSuite) TestArchiveTask_ClosesGap() {
	board := suite.createTestBoard("main")
	a := suite.createPublished("A", board.ID, models.StackTodo)
	b := suite.createPublished("B", board.ID, models.StackTodo)
	c := suite.createPublished("C", board.ID, models.StackTodo)
	suite.clearEvents()

	archived, err := suite.service.ArchiveTask(b.ID)
	suite.Require().NoError(err)

	assert.Equal(suite.T(), models.TaskStatusArchived, archived.Status)
	assert.Equal(suite.T(), 1, suite.reload(a.ID).Position)
	assert.Equal(suite.T(), 2, suite.reload(c.ID).Position)

	// Archival is not a stack transition.
	assert.Empty(suite.T(), suite.eventsNamed(events.NameStackTransition))
	assert.Len(suite.T(), suite.eventsNamed(events.NameTaskUpdated), 1)
}

func (suite *TaskServiceTestSuite) TestUnarchiveTask_AppendsAtEnd() {
	board := suite.createTestBoard("main")
	a := suite.createPublished("A", board.ID, models.StackTodo)
	b := suite.createPublished("B", board.ID, models.StackTodo)
	_, err := suite.service.ArchiveTask(a.ID)
	suite.Require().NoError(err)

	restored, err := suite.service.UnarchiveTask(a.ID)
	suite.Require().NoError(err)

	assert.Equal(suite.T(), models.TaskStatusPublished, restored.Status)
	assert.Equal(suite.T(), 1, suite.reload(b.ID).Position)
	assert.Equal(suite.T(), 2, suite.reload(a.ID).Position)
}

func (suite *TaskServiceTestSuite) TestDeleteTask_Reconciles() {
	board := suite.createTestBoard("main")
	a := suite.createPublished("A", board.ID, models.StackTodo)
	b := suite.createPublished("B", board.ID, models.StackTodo)
	c := suite.createPublished("C", board.ID, models.StackTodo)

	err := suite.service.DeleteTask(b.ID)
	suite.Require().NoError(err)

	assert.Equal(suite.T(), 1, suite.reload(a.ID).Position)
	assert.Equal(suite.T(), 2, suite.reload(c.ID).Position)

	var count int64
	suite.db.Model(&models.Task{}).Where("id = ?", b.ID).Count(&count)
	assert.Equal(suite.T(), int64(0), count)
}

func (suite *TaskServiceTestSuite) TestMoveTask_EmitsTransitionEvents() {
	board := suite.createTestBoard("main")
	task := suite.createPublished("A", board.ID, models.StackTodo)
	suite.clearEvents()

	err := suite.service.MoveTask(MoveTaskInput{
		TaskID:      task.ID,
		SourceStack: models.StackTodo,
		TargetStack: models.StackDone,
		SourceOrder: 1,
		TargetOrder: 1,
	})
	suite.Require().NoError(err)

	assert.Len(suite.T(), suite.eventsNamed(events.NameStackTransition), 1)
	assert.Len(suite.T(), suite.eventsNamed(events.NameTaskCompleted), 1)
	assert.Len(suite.T(), suite.eventsNamed(events.NameTaskUpdated), 1)
}

func (suite *TaskServiceTestSuite) TestMoveTask_SameStackNoTransition() {
	board := suite.createTestBoard("main")
	suite.createPublished("A", board.ID, models.StackTodo)
	task := suite.createPublished("B", board.ID, models.StackTodo)
	suite.clearEvents()

	err := suite.service.MoveTask(MoveTaskInput{
		TaskID:      task.ID,
		SourceStack: models.StackTodo,
		TargetStack: models.StackTodo,
		SourceOrder: 2,
		TargetOrder: 1,
	})
	suite.Require().NoError(err)

	assert.Empty(suite.T(), suite.eventsNamed(events.NameStackTransition))
	assert.Len(suite.T(), suite.eventsNamed(events.NameTaskUpdated), 1)
}

func (suite *TaskServiceTestSuite) TestMoveTask_ArchivedRejected() {
	board := suite.createTestBoard("main")
	task := suite.createPublished("A", board.ID, models.StackTodo)
	_, err := suite.service.ArchiveTask(task.ID)
	suite.Require().NoError(err)

	err = suite.service.MoveTask(MoveTaskInput{
		TaskID:      task.ID,
		SourceStack: models.StackTodo,
		TargetStack: models.StackDone,
		SourceOrder: 1,
		TargetOrder: 1,
	})
	assert.ErrorIs(suite.T(), err, ErrTaskArchived)
}

func (suite *TaskServiceTestSuite) TestPlanTaskDay_RoundTrip() {
	user := suite.createTestUser("alice")
	board := suite.createTestBoard("main")
	task := suite.createPublished("A", board.ID, models.StackTodo)

	err := suite.service.PlanTaskDay(task.ID, user.ID, "2026-08-28")
	suite.Require().NoError(err)
	// Planning the same day twice is idempotent.
	suite.Require().NoError(suite.service.PlanTaskDay(task.ID, user.ID, "2026-08-28"))

	planned, err := suite.service.ListPlanned(user.ID, "2026-08-28")
	suite.Require().NoError(err)
	suite.Require().Len(planned, 1)
	assert.Equal(suite.T(), task.ID, planned[0].ID)

	suite.Require().NoError(suite.service.UnplanTaskDay(task.ID, user.ID, "2026-08-28"))
	planned, err = suite.service.ListPlanned(user.ID, "2026-08-28")
	suite.Require().NoError(err)
	assert.Empty(suite.T(), planned)
}

func (suite *TaskServiceTestSuite) TestPlanTaskDay_InvalidDay() {
	err := suite.service.PlanTaskDay(1, 1, "28/08/2026")
	assert.ErrorIs(suite.T(), err, ErrInvalidDay)
}

// degradedService returns a service whose reconciler db rejects every
// statement, so the ordering paths run degraded while task writes succeed.
func (suite *TaskServiceTestSuite) degradedService() (*TaskService, *logrustest.Hook) {
	log, hook := logrustest.NewNullLogger()

	sqlDB, _, err := sqlmock.New()
	suite.Require().NoError(err)
	suite.T().Cleanup(func() { sqlDB.Close() })

	brokenDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	suite.Require().NoError(err)

	taskRepo := repository.NewTaskRepository(suite.db)
	boardRepo := repository.NewBoardRepository(suite.db)
	reconciler := NewOrderReconciler(brokenDB, taskRepo, log)
	return NewTaskService(taskRepo, boardRepo, reconciler, events.NewBus(), log), hook
}

func hasErrorEntry(hook *logrustest.Hook, message string) bool {
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.ErrorLevel && entry.Message == message {
			return true
		}
	}
	return false
}

func (suite *TaskServiceTestSuite) TestUpdateTask_AppendOrderFailureLogged() {
	board := suite.createTestBoard("main")
	task := suite.createPublished("A", board.ID, models.StackTodo)

	service, hook := suite.degradedService()

	done := models.StackDone
	_, err := service.UpdateTask(task.ID, UpdateTaskInput{Stack: &done})
	suite.Require().NoError(err)

	assert.True(suite.T(), hasErrorEntry(hook, "failed to compute append order for new partition"))
}

func (suite *TaskServiceTestSuite) TestUnarchiveTask_AppendOrderFailureLogged() {
	board := suite.createTestBoard("main")
	task := suite.createPublished("A", board.ID, models.StackTodo)
	_, err := suite.service.ArchiveTask(task.ID)
	suite.Require().NoError(err)

	service, hook := suite.degradedService()

	_, err = service.UnarchiveTask(task.ID)
	suite.Require().NoError(err)

	assert.True(suite.T(), hasErrorEntry(hook, "failed to compute append order for unarchived task"))
}

func TestTaskServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceTestSuite))
}

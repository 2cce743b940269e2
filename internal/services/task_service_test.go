package services

import (
	"testing"

	"samiti/internal/models"
	apperrors "samiti/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTaskFixture(t *testing.T) (*TaskService, *testFixture) {
	db := newTestDB(t)
	org := seedOrg(t, db, "Ganeshotsav 2026", "ganeshotsav-2026", models.OrgKindFestival, nil)

	f := &testFixture{
		db:        db,
		org:       org,
		admin:     seedMember(t, db, org.ID, 1, "admin@example.com", models.RoleAdmin),
		treasurer: seedMember(t, db, org.ID, 2, "treasurer@example.com", models.RoleTreasurer),
		volunteer: seedMember(t, db, org.ID, 3, "volunteer@example.com", models.RoleVolunteer),
	}
	return NewTaskService(db), f
}

func TestTaskCreate(t *testing.T) {
	svc, f := setupTaskFixture(t)

	// 志愿者不能创建任务
	_, err := svc.Create(gateFor(f.db, 3, "volunteer@example.com"), f.org.ID,
		&CreateTaskRequest{Title: "布置会场"})
	var roleErr *apperrors.InsufficientRoleError
	assert.ErrorAs(t, err, &roleErr)

	task, err := svc.Create(gateFor(f.db, 1, "admin@example.com"), f.org.ID,
		&CreateTaskRequest{Title: "布置会场", AssigneeID: &f.volunteer.ID})
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusPending, task.Status)
	assert.Equal(t, f.org.ID, task.TenantID)

	// 负责人必须是本组织成员
	missing := uint(404)
	_, err = svc.Create(gateFor(f.db, 1, "admin@example.com"), f.org.ID,
		&CreateTaskRequest{Title: "x", AssigneeID: &missing})
	assert.True(t, apperrors.IsValidation(err))
}

func TestTaskUpdateStatus_AssigneeRestriction(t *testing.T) {
	svc, f := setupTaskFixture(t)
	admin := gateFor(f.db, 1, "admin@example.com")

	mine, err := svc.Create(admin, f.org.ID,
		&CreateTaskRequest{Title: "我的任务", AssigneeID: &f.volunteer.ID})
	require.NoError(t, err)
	others, err := svc.Create(admin, f.org.ID,
		&CreateTaskRequest{Title: "别人的任务", AssigneeID: &f.treasurer.ID})
	require.NoError(t, err)

	volunteer := gateFor(f.db, 3, "volunteer@example.com")

	// 志愿者只能推进自己负责的任务
	require.NoError(t, svc.UpdateStatus(volunteer, f.org.ID, mine.ID, models.TaskStatusInProgress))
	assert.ErrorIs(t,
		svc.UpdateStatus(volunteer, f.org.ID, others.ID, models.TaskStatusInProgress),
		gorm.ErrRecordNotFound)

	// 管理员可推进任意任务
	require.NoError(t, svc.UpdateStatus(admin, f.org.ID, others.ID, models.TaskStatusDone))

	// 非法状态被拒绝
	err = svc.UpdateStatus(admin, f.org.ID, mine.ID, "abandoned")
	assert.True(t, apperrors.IsValidation(err))
}

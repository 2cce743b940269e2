// Package tenantdb 提供租户作用域存储：对一组固定白名单内的租户数据
// 模型，把每一次读写都强制约束到构造时绑定的租户上，使"忘记加租户条件"
// 这类编码失误不可能泄露或篡改其他租户的数据。
//
// 作用域存储必须在单次已授权请求内按需构造（ForTenant），禁止缓存或
// 跨请求复用。白名单之外的全局模型（组织表、用户表）不经过这里，由
// 显式处理跨租户可见性的代码直接使用原始 *gorm.DB。
package tenantdb

import (
	"reflect"

	"samiti/internal/models"
	apperrors "samiti/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TenantOwned 租户数据接口，由 models.TenantModel 统一实现
type TenantOwned interface {
	SetTenantID(uint)
	GetTenantID() uint
}

// scopedTypes 租户数据白名单。编译期常量集合，改动需要评审：
// 每个进入白名单的模型都必须内嵌 models.TenantModel。
var scopedTypes = map[reflect.Type]struct{}{
	reflect.TypeOf(models.Donation{}):   {},
	reflect.TypeOf(models.Expense{}):    {},
	reflect.TypeOf(models.BhogItem{}):   {},
	reflect.TypeOf(models.Membership{}): {},
	reflect.TypeOf(models.Event{}):      {},
	reflect.TypeOf(models.Task{}):       {},
}

// ScopedStore 绑定单一租户的存储句柄
type ScopedStore struct {
	db              *gorm.DB
	tenantID        uint
	includeArchived bool
}

// ForTenant 构造租户作用域存储。
// tenantID 为空立即失败：这是调用方的编码缺陷，必须在构造时暴露，
// 而不是日后以数据泄露的形式被发现。
func ForTenant(db *gorm.DB, tenantID uint) (*ScopedStore, error) {
	if tenantID == 0 {
		return nil, apperrors.ErrMissingTenantContext
	}
	return &ScopedStore{db: db, tenantID: tenantID}, nil
}

// TenantID 返回绑定的租户ID
func (s *ScopedStore) TenantID() uint {
	return s.tenantID
}

// IncludeArchived 返回一个包含归档行的副本（审计/历史查询用）。
// 默认所有读写都带 is_archived = false 谓词。
func (s *ScopedStore) IncludeArchived() *ScopedStore {
	return &ScopedStore{db: s.db, tenantID: s.tenantID, includeArchived: true}
}

// Transaction 在一个数据库事务内执行fn，fn内拿到的仍是同租户的作用域存储
func (s *ScopedStore) Transaction(fn func(tx *ScopedStore) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&ScopedStore{db: tx, tenantID: s.tenantID, includeArchived: s.includeArchived})
	})
}

// modelType 剥掉指针和切片，取底层模型类型
func modelType(value interface{}) reflect.Type {
	t := reflect.TypeOf(value)
	for t != nil && (t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice) {
		t = t.Elem()
	}
	return t
}

// guard 白名单检查。不在白名单内的模型一律拒绝：
// 显式装饰器模式下"未作用域"的路径就是原始DB句柄，
// 作用域存储自身对未知模型响亮失败，而不是悄悄放行。
func (s *ScopedStore) guard(model interface{}) error {
	if _, ok := scopedTypes[modelType(model)]; !ok {
		return apperrors.ErrNotTenantScoped
	}
	return nil
}

// scoped 基础查询：始终注入租户谓词与归档谓词。
// 调用方没给任何过滤条件时，租户谓词就是全部条件——
// 一次意外的"全量更新"最多波及本租户，绝不会波及全库。
func (s *ScopedStore) scoped(model interface{}) (*gorm.DB, error) {
	if err := s.guard(model); err != nil {
		return nil, err
	}
	tx := s.db.Model(model).Where("tenant_id = ?", s.tenantID)
	if !s.includeArchived {
		tx = tx.Where("is_archived = ?", false)
	}
	return tx, nil
}

// ========== 读操作 ==========

// Find 条件查询，调用方条件与租户谓词合并
func (s *ScopedStore) Find(dest interface{}, conds ...interface{}) error {
	tx, err := s.scoped(dest)
	if err != nil {
		return err
	}
	if len(conds) > 0 {
		tx = tx.Where(conds[0], conds[1:]...)
	}
	return tx.Find(dest).Error
}

// First 查询单条记录
func (s *ScopedStore) First(dest interface{}, conds ...interface{}) error {
	tx, err := s.scoped(dest)
	if err != nil {
		return err
	}
	if len(conds) > 0 {
		tx = tx.Where(conds[0], conds[1:]...)
	}
	return tx.First(dest).Error
}

// Count 条件计数
func (s *ScopedStore) Count(model interface{}, conds ...interface{}) (int64, error) {
	tx, err := s.scoped(model)
	if err != nil {
		return 0, err
	}
	if len(conds) > 0 {
		tx = tx.Where(conds[0], conds[1:]...)
	}
	var count int64
	err = tx.Count(&count).Error
	return count, err
}

// Page 分页查询，返回总数
func (s *ScopedStore) Page(dest interface{}, query interface{}, args []interface{}, order string, offset, limit int) (int64, error) {
	tx, err := s.scoped(dest)
	if err != nil {
		return 0, err
	}
	if query != nil {
		tx = tx.Where(query, args...)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return 0, err
	}

	if order != "" {
		tx = tx.Order(order)
	}
	if err := tx.Offset(offset).Limit(limit).Find(dest).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// ========== 写操作 ==========

// Create 创建记录，单条或切片均可。
// 租户ID强制注入，覆盖调用方在载荷里写的任何值。
func (s *ScopedStore) Create(value interface{}) error {
	if err := s.guard(value); err != nil {
		return err
	}
	if err := s.stamp(value); err != nil {
		return err
	}
	return s.db.Create(value).Error
}

// Updates 条件更新，返回影响行数。
// 审批这类状态迁移必须以影响行数作为唯一成功信号。
// 更新载荷里出现 tenant_id 一律剥除：租户归属创建后不可变，
// 不允许通过更新载荷把行迁到别的租户。
func (s *ScopedStore) Updates(model interface{}, query interface{}, args []interface{}, values map[string]interface{}) (int64, error) {
	tx, err := s.scoped(model)
	if err != nil {
		return 0, err
	}
	if query != nil {
		tx = tx.Where(query, args...)
	}

	result := tx.Updates(stripTenantID(values))
	return result.RowsAffected, result.Error
}

// Archive 软删除：置归档标记，返回影响行数
func (s *ScopedStore) Archive(model interface{}, query interface{}, args ...interface{}) (int64, error) {
	return s.Updates(model, query, args, map[string]interface{}{"is_archived": true})
}

// Delete 条件物理删除，返回影响行数。
// 本核心内的业务删除一律走 Archive，物理删除仅保留给维护场景。
func (s *ScopedStore) Delete(model interface{}, query interface{}, args ...interface{}) (int64, error) {
	tx, err := s.scoped(model)
	if err != nil {
		return 0, err
	}
	if query != nil {
		tx = tx.Where(query, args...)
	}
	result := tx.Delete(model)
	return result.RowsAffected, result.Error
}

// Upsert 插入或更新。
// 插入分支执行创建侧的租户注入，更新分支执行更新侧的剥除：
// updateColumns 中的 tenant_id 会被过滤掉，两侧独立处理。
func (s *ScopedStore) Upsert(value interface{}, conflictColumns []string, updateColumns []string) error {
	if err := s.guard(value); err != nil {
		return err
	}
	if err := s.stamp(value); err != nil {
		return err
	}

	cols := make([]clause.Column, 0, len(conflictColumns))
	for _, c := range conflictColumns {
		cols = append(cols, clause.Column{Name: c})
	}

	assigns := make([]string, 0, len(updateColumns))
	for _, c := range updateColumns {
		if c == "tenant_id" {
			continue
		}
		assigns = append(assigns, c)
	}

	return s.db.Clauses(clause.OnConflict{
		Columns:   cols,
		DoUpdates: clause.AssignmentColumns(assigns),
	}).Create(value).Error
}

// ========== 内部工具 ==========

// stamp 向创建载荷注入租户ID，切片载荷逐元素注入
func (s *ScopedStore) stamp(value interface{}) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Ptr && rv.Elem().Kind() == reflect.Slice {
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Slice {
		for i := 0; i < rv.Len(); i++ {
			if err := stampOne(rv.Index(i), s.tenantID); err != nil {
				return err
			}
		}
		return nil
	}
	return stampOne(rv, s.tenantID)
}

func stampOne(rv reflect.Value, tenantID uint) error {
	if rv.Kind() != reflect.Ptr {
		if !rv.CanAddr() {
			return apperrors.ErrNotTenantScoped
		}
		rv = rv.Addr()
	}
	owned, ok := rv.Interface().(TenantOwned)
	if !ok {
		return apperrors.ErrNotTenantScoped
	}
	owned.SetTenantID(tenantID)
	return nil
}

// stripTenantID 从更新载荷中剥除租户ID字段
func stripTenantID(values map[string]interface{}) map[string]interface{} {
	if values == nil {
		return values
	}
	cleaned := make(map[string]interface{}, len(values))
	for k, v := range values {
		if k == "tenant_id" || k == "TenantID" {
			continue
		}
		cleaned[k] = v
	}
	return cleaned
}

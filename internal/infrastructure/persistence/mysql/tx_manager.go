package mysql

import (
	"context"

	"gorm.io/gorm"
)

// txKey context中事务DB的key
type txKey struct{}

// TxManager 事务管理器
// 事务DB通过context传递，Repository内部用getDB取出
type TxManager struct {
	db *gorm.DB
}

// NewTxManager 创建事务管理器
func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// Transaction 执行事务，fn返回error时回滚
// ctx中已有事务时在其上开启嵌套事务（GORM使用Savepoint）
//
//	err := txManager.Transaction(ctx, func(ctx context.Context) error {
//	    if err := productRepo.UpdateIndexState(ctx, p); err != nil {
//	        return err
//	    }
//	    return indexRepo.Save(ctx, entry)
//	})
func (m *TxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return getDB(ctx, m.db).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

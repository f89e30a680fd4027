package mysql

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/mall/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 设计说明：
// 1. 使用GORM v2作为ORM框架
// 2. 配置连接池参数（MaxOpenConns、MaxIdleConns、ConnMaxLifetime）
// 3. 开发环境开启SQL日志，生产环境关闭
// 4. database.auto_migrate开启时自动迁移表结构，生产环境使用migrate命令
func NewDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	dsn := cfg.Database.DSN()

	logLevel := logger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info // 开发环境打印SQL
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true, // 1062 → gorm.ErrDuplicatedKey
		NowFunc:        func() time.Time {
			// 配合MySQL的TZ=Asia/Shanghai
			return time.Now()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	log.Info("数据库连接成功",
		zap.String("host", cfg.Database.Host),
		zap.String("dbname", cfg.Database.DBName),
	)

	if cfg.Database.AutoMigrate {
		if err := autoMigrate(db); err != nil {
			return nil, fmt.Errorf("数据库迁移失败: %w", err)
		}
		log.Info("AutoMigrate完成")
	}

	return db, nil
}

// autoMigrate 自动迁移表结构
// 说明：
// 1. AutoMigrate只会创建表、添加字段，不会删除或修改现有字段
// 2. 生产环境使用migrations目录下的版本化脚本
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&ProductModel{},
		&ProductImageModel{},
		&ProductParamModel{},
		&ProductImageIndexModel{},
	)
}

// UserModel GORM用户模型
// 与领域实体user.User的转换见user_repo.go
type UserModel struct {
	ID        uint           `gorm:"primaryKey"`
	Email     string         `gorm:"uniqueIndex;size:100;not null;comment:邮箱"`
	Password  string         `gorm:"size:255;not null;comment:密码（bcrypt加密）"`
	Nickname  string         `gorm:"size:50;not null;comment:昵称"`
	Role      string         `gorm:"size:20;not null;default:user;comment:角色(admin/user)"`
	CreatedAt time.Time      `gorm:"comment:创建时间"`
	UpdatedAt time.Time      `gorm:"comment:更新时间"`
	DeletedAt gorm.DeletedAt `gorm:"index;comment:删除时间（软删除）"`
}

// TableName 指定表名
func (UserModel) TableName() string {
	return "users"
}

// ProductModel GORM商品模型
// 设计说明:
// 1. 价格使用decimal(10,2),映射为shopspring/decimal
// 2. baidu_*字段记录百度图库入库状态,baidu_status上有索引(已入库/未入库列表)
// 3. baidu_updated_at允许为NULL,删除图库条目后清空
type ProductModel struct {
	ID             uint            `gorm:"primaryKey"`
	Name           string          `gorm:"index;size:200;not null;comment:商品名称"`
	CategoryID     uint            `gorm:"index;not null;default:0;comment:分类ID"`
	Price          decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0;comment:价格"`
	Stock          int             `gorm:"default:0;comment:库存数量"`
	Description    string          `gorm:"type:text;comment:商品描述"`
	Status         int             `gorm:"type:tinyint;default:1;comment:上架状态(1上架0下架)"`
	BaiduContSign  *string         `gorm:"size:128;comment:百度图库签名"`
	BaiduStatus    int             `gorm:"index;type:tinyint;not null;default:0;comment:入库状态(0未入库1已入库2失败)"`
	BaiduUpdatedAt *time.Time      `gorm:"comment:入库状态更新时间"`
	CreatedAt      time.Time       `gorm:"index;comment:创建时间"`
	UpdatedAt      time.Time       `gorm:"comment:更新时间"`
	DeletedAt      gorm.DeletedAt  `gorm:"index;comment:删除时间(软删除)"`
}

// TableName 指定表名
func (ProductModel) TableName() string {
	return "products"
}

// ProductImageModel GORM商品图片模型
type ProductImageModel struct {
	ID        uint      `gorm:"primaryKey"`
	ProductID uint      `gorm:"index;not null;comment:商品ID"`
	URL       string    `gorm:"column:image_url;size:500;not null;comment:图片地址"`
	IsPrimary bool      `gorm:"not null;default:false;comment:是否主图"`
	Sort      int       `gorm:"default:0;comment:排序"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
}

// TableName 指定表名
func (ProductImageModel) TableName() string {
	return "product_images"
}

// ProductParamModel GORM商品参数模型
type ProductParamModel struct {
	ID        uint   `gorm:"primaryKey"`
	ProductID uint   `gorm:"index;not null;comment:商品ID"`
	Name      string `gorm:"column:param_name;size:100;not null;comment:参数名"`
	Value     string `gorm:"column:param_value;size:500;comment:参数值"`
	Sort      int    `gorm:"default:0;comment:排序"`
}

// TableName 指定表名
func (ProductParamModel) TableName() string {
	return "product_params"
}

// ProductImageIndexModel 图库签名映射
// cont_sign唯一,与products.baidu_cont_sign在同一事务中写入/删除
type ProductImageIndexModel struct {
	ID        uint      `gorm:"primaryKey"`
	ContSign  string    `gorm:"uniqueIndex;size:128;not null;comment:百度图库签名"`
	ProductID uint      `gorm:"index;not null;comment:商品ID"`
	ImageURL  string    `gorm:"size:500;comment:入库时使用的图片"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
}

// TableName 指定表名
func (ProductImageIndexModel) TableName() string {
	return "product_image_index"
}

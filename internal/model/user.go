package model

// SysUser 系统用户账号
// ExternalID 为认证侧下发的不透明用户标识，所有租户数据都以它作为 owner 关联，
// 不使用本表主键做外键
type SysUser struct {
	BaseModel
	// 基础信息
	ExternalID string `gorm:"size:64;uniqueIndex;not null"` // 认证身份标识 (JWT subject)
	Username   string `gorm:"size:100;uniqueIndex;not null"`
	Password   string `gorm:"size:255;not null"` // 哈希密码
	Email      string `gorm:"size:100"`

	// 系统级角色: admin (管理员), merchant (商户)
	Role string `gorm:"size:20;default:'merchant'"`

	IsActive bool `gorm:"default:true"`
}

func (SysUser) TableName() string {
	return "sys_users"
}

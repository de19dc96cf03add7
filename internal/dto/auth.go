package dto

// ── 认证模块 DTO ──

// LoginRequest 登录请求
type LoginRequest struct {
	Email      string `json:"email"    binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

// RegisterRequest 实习生自助注册请求
type RegisterRequest struct {
	Name        string `json:"name"         binding:"required,min=2,max=100"`
	Email       string `json:"email"        binding:"required,email"`
	Password    string `json:"password"     binding:"required,min=8,max=64"`
	Phone       string `json:"phone"        binding:"omitempty,max=30"`
	SpecialtyID string `json:"specialty_id" binding:"required,uuid"`
	Institution string `json:"institution"  binding:"omitempty,max=150"`
	Level       string `json:"level"        binding:"omitempty,max=50"`
	Department  string `json:"department"   binding:"omitempty,max=100"`
	Option      string `json:"option"       binding:"omitempty,max=100"`
	StartDate   string `json:"start_date"   binding:"omitempty,yyyymmdd"`
	EndDate     string `json:"end_date"     binding:"omitempty,yyyymmdd"`
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=64"`
}

// RegisterDeviceTokenRequest 注册推送设备令牌
type RegisterDeviceTokenRequest struct {
	Token string `json:"token" binding:"required,max=512"`
}

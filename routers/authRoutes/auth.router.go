package authRoutes

import (
	authControllers "fillop/controllers/auth"
	"fillop/middleware"
	"fillop/validators"
	authValidators "fillop/validators/auth"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(router fiber.Router) {
	authGroup := router.Group("/auth")

	authGroup.Post("/signup", authValidators.Signup(), authControllers.Signup)
	authGroup.Post("/login", authValidators.Login(), authControllers.Login)
	authGroup.Get("/login/history", middleware.JWTMiddleware, validators.List(), authControllers.LoginHistoryList)
	authGroup.Post("/send/otp", authValidators.SendOTP(), authControllers.SendOTP)
	authGroup.Patch("/verify/otp", authValidators.VerifyOTP(), authControllers.VerifyOTP)
	authGroup.Post("/forgot/password/send/otp", authValidators.SendOTP(), authControllers.ForgotPasswordSendOTP)
	authGroup.Patch("/forgot/password/verify/otp", authValidators.VerifyOTP(), authControllers.ForgotPasswordVerifyOTP)
	authGroup.Patch("/reset/password", middleware.JWTMiddleware, authValidators.ResetPassword(), authControllers.ResetPassword)
	authGroup.Put("/change/password", middleware.JWTMiddleware, authValidators.ChangeLoginPassword(), authControllers.ChangeLoginPassword)
	authGroup.Post("/accept/invite", authValidators.AcceptInvite(), authControllers.AcceptInvite)
	authGroup.Get("/profile", middleware.JWTMiddleware, authControllers.GetProfile)
	authGroup.Put("/profile", middleware.JWTMiddleware, authValidators.UpdateProfile(), authControllers.UpdateProfile)
}

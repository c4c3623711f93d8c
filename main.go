package main

import (
	"os"

	"github.com/DevPar45/eventlinkd/routes"
	"github.com/DevPar45/eventlinkd/services"
	"github.com/DevPar45/eventlinkd/storage"
	"github.com/DevPar45/eventlinkd/utils"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"github.com/rs/zerolog"
)

func main() {
	godotenv.Load()

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	db := storage.InitializeDB()
	storage.InitializeRedis()
	storage.InitializeCloudinary()

	baseURL := os.Getenv("APP_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}

	services.Mail = services.NewMailerFromEnv(&log)
	notifier := services.NewEmailNotifier(services.Mail, baseURL, &log)
	services.Applications = services.NewApplicationService(db, notifier, &log)
	services.Certificates = services.NewCertificateService(db, storage.Media, notifier, baseURL, &log)
	services.Messaging = services.NewMessagingService(db, &log)

	app := iris.New()
	app.Validator = validator.New()

	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.Use(iris.Compression)

	resetTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("EMAIL_TOKEN_SECRET")))
	resetTokenVerifier.WithDefaultBlocklist()
	resetTokenVerifierMiddleware := resetTokenVerifier.Verify(func() interface{} {
		return new(utils.ForgotPasswordToken)
	})

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})

	api := app.Party("/api")
	{
		// Certificate verification is public, no token required.
		api.Get("/verify/{code}", routes.VerifyCertificate)

		user := api.Party("/users")
		{
			user.Post("/register", routes.Register)
			user.Post("/login", routes.Login)
			user.Post("/forgot-password", routes.ForgotPassword)
			user.Post("/reset-password", resetTokenVerifierMiddleware, routes.ResetPassword)
			user.Post("/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)
			user.Get("/{id}", accessTokenVerifierMiddleware, routes.GetUser)
			user.Patch("/{id}", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.UpdateUser)
		}

		event := api.Party("/events")
		event.Use(accessTokenVerifierMiddleware)
		{
			event.Post("/", utils.OrganiserOnlyMiddleware, routes.CreateEvent)
			event.Get("/", routes.GetEvents)
			event.Get("/{id}", routes.GetEvent)
			event.Patch("/{id}", utils.OrganiserOnlyMiddleware, routes.UpdateEvent)
			event.Delete("/{id}", utils.OrganiserOnlyMiddleware, routes.DeleteEvent)
			event.Post("/{id}/close", utils.OrganiserOnlyMiddleware, routes.CloseEvent)
			event.Post("/{id}/complete", utils.OrganiserOnlyMiddleware, routes.CompleteEvent)
			event.Post("/{id}/apply", routes.ApplyToEvent)
		}

		application := api.Party("/applications")
		application.Use(accessTokenVerifierMiddleware)
		{
			application.Get("/", routes.ListApplications)
			application.Patch("/{id}", utils.OrganiserOnlyMiddleware, routes.SetApplicationStatus)
		}

		certificate := api.Party("/certificates")
		certificate.Use(accessTokenVerifierMiddleware)
		{
			certificate.Get("/", routes.ListCertificates)
		}

		chat := api.Party("/chats")
		chat.Use(accessTokenVerifierMiddleware)
		{
			chat.Post("/", routes.StartChat)
			chat.Get("/", routes.ListChats)
			chat.Get("/stream", routes.StreamChats)
			chat.Post("/{id}/read", routes.MarkChatRead)
			chat.Get("/{id}/stream", routes.StreamChatMessages)
			chat.Post("/{id}/typing", routes.Typing)
			chat.Get("/{id}/typing", routes.ListTyping)
		}

		message := api.Party("/messages")
		message.Use(accessTokenVerifierMiddleware)
		{
			message.Post("/", routes.CreateMessage)
			message.Get("/", routes.ListMessages)
		}

		api.Post("/upload", accessTokenVerifierMiddleware, routes.UploadImage)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}

	log.Info().Str("port", port).Msg("starting eventlinkd")
	app.Listen(":" + port)
}

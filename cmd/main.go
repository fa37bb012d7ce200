package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/lettora/rentals-service/internal/app"
	"github.com/lettora/rentals-service/internal/config"
	"github.com/lettora/rentals-service/internal/constants"
	"github.com/lettora/rentals-service/internal/controllers"
	"github.com/lettora/rentals-service/internal/middleware"
	"github.com/lettora/rentals-service/internal/repositories"
	"github.com/lettora/rentals-service/internal/routes"
	"github.com/lettora/rentals-service/internal/services"
	"github.com/lettora/rentals-service/internal/utils"
	"github.com/robfig/cron/v3"
	"github.com/rs/cors"
	"github.com/sendgrid/sendgrid-go"
	"github.com/twilio/twilio-go"
	_ "time/tzdata"
)

func main() {
	utils.InitLogger(config.AppName)
	cfg := config.LoadConfig()
	defer cfg.Close()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize rentals-service:", err)
	}
	defer application.Close()

	// Repositories
	accountRepo := repositories.NewAccountRepository(application.DB)
	propRepo := repositories.NewPropertyRepository(application.DB)
	savedRepo := repositories.NewSavedPropertyRepository(application.DB)
	appRepo := repositories.NewRentalApplicationRepository(application.DB)
	inviteRepo := repositories.NewViewingInviteRepository(application.DB)
	payRepo := repositories.NewApplicationPaymentRepository(application.DB)
	msgRepo := repositories.NewMessageRepository(application.DB)

	if cfg.LDFlag_SeedDbWithTestData {
		if err := app.SeedAllTestData(context.Background(), accountRepo, propRepo); err != nil {
			utils.Logger.Fatal("Failed to seed test data:", err)
		}
	}

	// Outbound clients
	twClient := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})
	sgClient := sendgrid.NewSendClient(cfg.SendGridAPIKey)

	// Services
	paymentService := services.NewPaymentService(cfg, payRepo, appRepo)
	applicationService := services.NewApplicationService(cfg, appRepo, propRepo, paymentService)
	inviteService := services.NewInviteService(cfg, inviteRepo, propRepo, accountRepo, twClient, sgClient)
	propertyService := services.NewPropertyService(propRepo, savedRepo)
	messageService := services.NewMessageService(msgRepo, propRepo)

	// Start dynamic webhook manager
	if err := paymentService.Start(context.Background()); err != nil {
		utils.Logger.WithError(err).Fatal("Failed to start PaymentService (dynamic webhooks)")
	}
	defer func() {
		if err := paymentService.Stop(context.Background()); err != nil {
			utils.Logger.WithError(err).Error("Error stopping PaymentService")
		}
	}()

	// Controllers
	healthController := controllers.NewHealthController(application)
	applicationsController := controllers.NewApplicationsController(applicationService)
	invitesController := controllers.NewInvitesController(inviteService)
	paymentsController := controllers.NewPaymentsController(applicationService)
	stripeWebhookController := controllers.NewStripeWebhookController(paymentService)
	propertiesController := controllers.NewPropertiesController(propertyService)
	messagesController := controllers.NewMessagesController(messageService)

	// Router setup
	router := mux.NewRouter()

	// Public Routes
	router.HandleFunc(routes.Health, healthController.HealthCheckHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.StripeWebhook, stripeWebhookController.WebhookHandler).Methods(http.MethodPost)

	// Secured routes
	secured := router.NewRoute().Subrouter()
	secured.Use(middleware.AuthMiddleware(cfg.RSAPublicKey))

	// Application wizard
	secured.HandleFunc(routes.ApplicationsBase, applicationsController.ListHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.ApplicationResume, applicationsController.ResumeHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.ApplicationByID, applicationsController.GetHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.StepPersonalKin, applicationsController.PersonalKinHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.StepResidentialAddress, applicationsController.ResidentialAddressHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.StepEmploymentDetails, applicationsController.EmploymentDetailsHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.StepAdditionalDetails, applicationsController.AdditionalDetailsHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.StepReferees, applicationsController.RefereesHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.StepDocuments, applicationsController.DocumentsHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.StepGuarantor, applicationsController.GuarantorHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.StepDeclaration, applicationsController.DeclarationHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.StepChecklist, applicationsController.ChecklistHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.ApplicationComplete, applicationsController.ChecklistHandler).Methods(http.MethodPost)

	// Viewing invites
	secured.HandleFunc(routes.InvitesBase, invitesController.CreateHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.InvitesBase, invitesController.ListTenantHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.InvitesLandlord, invitesController.ListLandlordHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.InviteByID, invitesController.GetHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.InviteRespond, invitesController.RespondHandler).Methods(http.MethodPost)

	// Payments
	secured.HandleFunc(routes.PaymentsBase, paymentsController.CreateHandler).Methods(http.MethodPost)

	// Property browsing and saved properties
	secured.HandleFunc(routes.SavedProperties, propertiesController.ListSavedHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.SavedProperties, propertiesController.SaveHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.SavedPropertyByID, propertiesController.UnsaveHandler).Methods(http.MethodDelete)
	secured.HandleFunc(routes.PropertiesBase, propertiesController.ListHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.PropertyByID, propertiesController.GetHandler).Methods(http.MethodGet)

	// Messaging
	secured.HandleFunc(routes.ThreadsBase, messagesController.StartThreadHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.ThreadsBase, messagesController.ListThreadsHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.ThreadByID, messagesController.GetThreadHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.ThreadMessages, messagesController.SendMessageHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.ThreadMessages, messagesController.ListMessagesHandler).Methods(http.MethodGet)

	// Cron job setup
	c := cron.New(cron.WithLocation(time.UTC))

	// Viewings past their viewing date move to awaiting-feedback after
	// the grace period.
	_, err = c.AddFunc(constants.FeedbackSweepCronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.CronJobTimeout)
		defer cancel()
		utils.Logger.Info("Starting awaiting-feedback sweep cron job...")
		inviteService.SweepAwaitingFeedback(ctx)
	})
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to schedule awaiting-feedback sweep cron")
	}

	_, err = c.AddFunc(constants.ViewingReminderCronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.CronJobTimeout)
		defer cancel()
		utils.Logger.Info("Starting viewing reminder cron job...")
		inviteService.SendViewingReminders(ctx)
	})
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to schedule viewing reminder cron")
	}

	c.Start()
	utils.Logger.Info("Scheduled viewing invite cron jobs")

	allowedOrigins := []string{cfg.AppUrl}
	if !cfg.LDFlag_CORSHighSecurity {
		allowedOrigins = append(allowedOrigins, utils.CORSLowSecurityAllowedOriginLocalhost)
	}

	co := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Platform", "ngrok-skip-browser-warning"},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("rentals-service failed to start:", err)
	}
}

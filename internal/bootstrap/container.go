package bootstrap

import (
	"log"

	"interview-engine-be/internal/config"
	"interview-engine-be/internal/controller"
	"interview-engine-be/internal/pkg/logger"
	"interview-engine-be/internal/repository/memory"
	"interview-engine-be/internal/repository/unitofwork"
	"interview-engine-be/internal/service"

	pktNats "interview-engine-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	InterviewController controller.IInterviewController
	SchemaController    controller.ISchemaController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	SchemaService   service.ISchemaService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	// NATS; the engine runs fine without it, completions just stay local.
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// In-memory hot cache in front of the session table
	sessionCache := memory.NewSessionCache()

	// 3. Services
	publisherService := service.NewPublisherService(cfg.Interview.CompletedTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Interview.CompletedTopic,
		natsPub,
	)

	schemaService := service.NewSchemaService(uowFactory, sysLogger, cfg.Interview.MaxTextLen)
	interviewService := service.NewInterviewService(
		uowFactory,
		schemaService,
		sessionCache,
		publisherService,
		sysLogger,
		cfg.Interview.DefaultFlow,
	)

	// 4. Controllers
	return &Container{
		InterviewController: controller.NewInterviewController(interviewService),
		SchemaController:    controller.NewSchemaController(schemaService),

		ConsumerService: consumerService,
		SchemaService:   schemaService,

		Logger: sysLogger,
	}
}

package config

import "os"

// RelayConfig holds configuration for the outbox relay process, which
// also runs the periodic expiry sweep.
type RelayConfig struct {
	DatabaseURL    string
	RabbitMQURL    string
	AlertQueueName string
}

func LoadRelayConfig() *RelayConfig {
	dbURL := os.Getenv("DB_CONNECTION_STRING")
	if dbURL == "" {
		panic("DB_CONNECTION_STRING environment variable is required")
	}

	rabbitURL := os.Getenv("RABBITMQ_URL")
	if rabbitURL == "" {
		panic("RABBITMQ_URL environment variable is required")
	}

	queueName := os.Getenv("ALERT_QUEUE_NAME")
	if queueName == "" {
		queueName = "donor-alerts"
	}

	return &RelayConfig{
		DatabaseURL:    dbURL,
		RabbitMQURL:    rabbitURL,
		AlertQueueName: queueName,
	}
}

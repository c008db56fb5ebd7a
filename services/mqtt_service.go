package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/jorge1125/mycodo-plant-analyzer/config"
	"github.com/jorge1125/mycodo-plant-analyzer/models"
)

// MQTTService publishes report summaries to the home-automation broker so
// Mycodo dashboards and other subscribers can react to them.
type MQTTService struct {
	client      mqtt.Client
	topicPrefix string
	qos         byte
	enabled     bool
}

// reportSummary is the wire shape published per analysis run.
type reportSummary struct {
	Profile    string    `json:"profile"`
	PlantType  string    `json:"plant_type"`
	Score      float64   `json:"overall_score"`
	Band       string    `json:"band"`
	WindowDays int       `json:"window_days"`
	RunID      string    `json:"run_id"`
	FinishedAt time.Time `json:"finished_at"`
	Attention  []string  `json:"attention,omitempty"` // non-optimal parameters
}

func NewMQTTService(cfg *config.Config) (*MQTTService, error) {
	mq := cfg.Notifications.MQTT
	if mq.Broker == "" {
		log.Println("MQTT broker not configured, MQTT publishing disabled")
		return &MQTTService{enabled: false}, nil
	}

	opts := mqtt.NewClientOptions().
		AddBroker(mq.Broker).
		SetClientID(mq.ClientID).
		SetConnectTimeout(10 * time.Second).
		SetAutoReconnect(true)
	if mq.Username != "" {
		opts.SetUsername(mq.Username)
		opts.SetPassword(mq.Password)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	log.Printf("MQTT connected to %s (topic prefix: %s)", mq.Broker, mq.TopicPrefix)

	return &MQTTService{
		client:      client,
		topicPrefix: mq.TopicPrefix,
		qos:         byte(mq.QoS),
		enabled:     true,
	}, nil
}

func (ms *MQTTService) Close() {
	if ms.enabled && ms.client != nil {
		ms.client.Disconnect(250)
	}
}

// PublishReport publishes the run summary to <prefix>/<profile>. The message
// is retained so late subscribers see the latest report immediately.
func (ms *MQTTService) PublishReport(run *models.AnalysisRun) error {
	if !ms.enabled {
		return fmt.Errorf("MQTT not enabled")
	}
	if run == nil || run.Report == nil {
		return fmt.Errorf("run has no report")
	}

	summary := reportSummary{
		Profile:    run.Profile,
		PlantType:  run.Report.PlantType,
		Score:      run.Report.OverallScore,
		Band:       run.Report.Band,
		WindowDays: run.WindowDays,
		RunID:      run.ID,
		FinishedAt: run.FinishedAt,
	}
	for _, a := range run.Report.Assessments {
		if a.Status != models.StatusOptimal {
			summary.Attention = append(summary.Attention, a.Parameter)
		}
	}

	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal report summary: %w", err)
	}

	topic := ms.topicPrefix + "/" + run.Profile
	token := ms.client.Publish(topic, ms.qos, true, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, token.Error())
	}

	log.Printf("Report published to MQTT topic %s", topic)
	return nil
}

package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/ByteCraftsmanY/fastapi-crud/internal/entity"
	"github.com/ByteCraftsmanY/fastapi-crud/internal/infrastructure/client"
	"github.com/ByteCraftsmanY/fastapi-crud/internal/repository"
	amqp "github.com/rabbitmq/amqp091-go"
)

type AuditWorker struct {
	amqpURL   string
	auditRepo repository.ITaskAuditRepository
}

func NewAuditWorker(amqpURL string, auditRepo repository.ITaskAuditRepository) *AuditWorker {
	return &AuditWorker{
		amqpURL:   amqpURL,
		auditRepo: auditRepo,
	}
}

func (w *AuditWorker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			fmt.Println("🛑 Audit Worker остановлен")
			return
		default:
			if err := w.run(ctx); err != nil {
				log.Printf("❌ Audit Worker ошибка: %v, переподключение через 5 секунд...", err)
				select {
				case <-ctx.Done():
				case <-time.After(5 * time.Second):
				}
			}
		}
	}
}

func (w *AuditWorker) run(ctx context.Context) error {
	// Отдельное соединение и канал для consumer'а
	conn, err := amqp.Dial(w.amqpURL)
	if err != nil {
		return fmt.Errorf("ошибка подключения: %w", err)
	}
	defer conn.Close()

	channel, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("ошибка создания канала: %w", err)
	}
	defer channel.Close()

	// Убеждаемся, что очередь существует
	_, err = channel.QueueDeclare(
		client.AuditQueueName, // name
		true,                  // durable
		false,                 // delete when unused
		false,                 // exclusive
		false,                 // no-wait
		nil,                   // arguments
	)
	if err != nil {
		return fmt.Errorf("ошибка объявления очереди: %w", err)
	}

	msgs, err := channel.Consume(
		client.AuditQueueName, // queue
		"audit_worker",        // consumer tag
		false,                 // auto-ack
		false,                 // exclusive
		false,                 // no-local
		false,                 // no-wait
		nil,                   // args
	)
	if err != nil {
		return fmt.Errorf("ошибка создания consumer: %w", err)
	}

	fmt.Println("✅ Audit Worker запущен. Ожидаем сообщения...")

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("канал сообщений закрыт")
			}
			w.processMessage(msg)
		}
	}
}

func (w *AuditWorker) processMessage(msg amqp.Delivery) {
	ctx := context.Background()

	// 1. Парсим сообщение
	var auditMsg entity.AuditMessage
	if err := json.Unmarshal(msg.Body, &auditMsg); err != nil {
		log.Printf("❌ Ошибка парсинга сообщения: %v", err)
		msg.Nack(false, false) // Не возвращаем в очередь
		return
	}

	// 2. Конвертируем в TaskAudit
	taskAudit, err := convertToTaskAudit(&auditMsg)
	if err != nil {
		log.Printf("❌ Ошибка конвертации: %v", err)
		msg.Nack(false, false)
		return
	}

	// 3. Сохраняем в БД
	if err := w.auditRepo.Create(ctx, taskAudit); err != nil {
		log.Printf("❌ Ошибка сохранения аудита: %v", err)
		msg.Nack(false, true) // Возвращаем в очередь для повторной обработки
		return
	}

	// 4. Подтверждаем обработку
	msg.Ack(false)
	log.Printf("✅ Аудит сохранен: %s задача ID=%d", taskAudit.Action, taskAudit.EntityID)
}

func convertToTaskAudit(msg *entity.AuditMessage) (*entity.TaskAudit, error) {
	var oldValuesJSON, newValuesJSON, changesJSON *string

	if msg.OldValues != nil {
		data, err := json.Marshal(msg.OldValues)
		if err != nil {
			return nil, err
		}
		s := string(data)
		oldValuesJSON = &s
	}

	if msg.NewValues != nil {
		data, err := json.Marshal(msg.NewValues)
		if err != nil {
			return nil, err
		}
		s := string(data)
		newValuesJSON = &s
	}

	if msg.Changes != nil {
		data, err := json.Marshal(msg.Changes)
		if err != nil {
			return nil, err
		}
		s := string(data)
		changesJSON = &s
	}

	return &entity.TaskAudit{
		Action:     msg.Action,
		EntityType: "task",
		EntityID:   msg.EntityID,
		OldValues:  oldValuesJSON,
		NewValues:  newValuesJSON,
		Changes:    changesJSON,
		ChangedAt:  msg.Timestamp,
	}, nil
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ByteCraftsmanY/fastapi-crud/internal/api"
	"github.com/ByteCraftsmanY/fastapi-crud/internal/config"
	"github.com/ByteCraftsmanY/fastapi-crud/internal/infrastructure/client"
	"github.com/ByteCraftsmanY/fastapi-crud/internal/repository"
	"github.com/ByteCraftsmanY/fastapi-crud/internal/usecase"
	"github.com/ByteCraftsmanY/fastapi-crud/internal/worker"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
)

func main() {
	var wg sync.WaitGroup

	// .env опционален
	_ = godotenv.Load()
	cfg := config.Load()

	// Запускаем миграции
	if err := runMigrations(cfg.DatabaseURL()); err != nil {
		log.Fatal("❌ Ошибка миграций:", err)
	}

	// Подключаемся к БД
	db, err := client.NewPostgresClient(cfg)
	if err != nil {
		log.Fatal("❌ Ошибка подключения к БД:", err)
	}
	defer db.Close()
	fmt.Println("✅ Подключение к БД установлено")

	// Подключаемся к RabbitMQ
	rabbitMQ, err := client.NewRabbitMQClient(cfg.RabbitMQURL())
	if err != nil {
		log.Fatal("❌ Ошибка подключения к RabbitMQ:", err)
	}
	defer rabbitMQ.Close()
	fmt.Println("✅ Подключение к RabbitMQ установлено")

	// Инициализируем репозитории и сервис
	taskRepo := repository.NewTaskRepository(db.Pool)
	taskAuditRepo := repository.NewTaskAuditRepository(db.Pool)
	taskService := usecase.NewTaskService(taskRepo, rabbitMQ)

	// Запускаем воркер для обработки аудит-сообщений
	auditWorker := worker.NewAuditWorker(cfg.RabbitMQURL(), taskAuditRepo)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		fmt.Println("Запуск Audit Worker...")
		auditWorker.Start(workerCtx)
	}()

	// HTTP сервер
	router := api.NewRouter(taskService)
	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		fmt.Printf("Запуск HTTP сервера на порту %s...\n", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("❌ HTTP server error: %v", err)
		}
	}()

	fmt.Println("✅ Сервис готов к работе!")
	fmt.Printf(" API: http://localhost:%s/task/\n", cfg.HTTPPort)
	fmt.Println("Для остановки нажмите Ctrl+C")

	// Ждем сигнал завершения
	waitForShutdown(server, workerCancel, cfg)
	wg.Wait()
	fmt.Println("✅ Приложение завершено корректно")
}

func waitForShutdown(server *http.Server, workerCancel context.CancelFunc, cfg config.Config) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	fmt.Println("Завершение работы...")

	// Останавливаем HTTP сервер и воркер
	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second,
	)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Ошибка остановки HTTP сервера: %v", err)
	}
	workerCancel()
}

func runMigrations(dbURL string) error {
	m, err := migrate.New("file://migrations", dbURL)
	if err != nil {
		return fmt.Errorf("ошибка создания мигратора: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("ошибка выполнения миграций: %w", err)
	}

	fmt.Println("✅ Миграции выполнены успешно")
	return nil
}

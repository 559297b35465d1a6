package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/models"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/repository"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/services"
)

// Pool consumes export tasks from redis and writes registry extracts to
// disk. Long exports run here so request handlers stay fast.
type Pool struct {
	redis       *redis.Client
	exportRepo  *repository.ExportRepo
	applicants  *repository.ApplicantRepo
	orgs        *repository.OrganizationRepo
	contracts   *repository.ContractRepo
	notifier    *services.Notifier
	storagePath string
	workerCount int
	stopChan    chan struct{}
}

func NewPool(
	redisClient *redis.Client,
	exportRepo *repository.ExportRepo,
	applicants *repository.ApplicantRepo,
	orgs *repository.OrganizationRepo,
	contracts *repository.ContractRepo,
	notifier *services.Notifier,
	storagePath string,
	workerCount int,
) *Pool {
	return &Pool{
		redis:       redisClient,
		exportRepo:  exportRepo,
		applicants:  applicants,
		orgs:        orgs,
		contracts:   contracts,
		notifier:    notifier,
		storagePath: storagePath,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}

	log.Printf("Started %d export worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, models.ExportQueue).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		var task models.ExportTask
		if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
			log.Printf("Worker %d: failed to parse export task: %v", id, err)
			continue
		}

		// Try to acquire lock
		lockKey := fmt.Sprintf("job_lock:%s", task.ID.String())
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue // Another worker has this task
		}

		log.Printf("Worker %d: processing export %s (type: %s)", id, task.ID, task.Type)

		p.exportRepo.UpdateStatus(ctx, task.ID, "processing")

		filePath, processErr := p.process(ctx, &task)
		if processErr != nil {
			p.handleFailure(ctx, &task, processErr)
		} else {
			p.handleSuccess(ctx, &task, filePath)
		}

		// Release lock
		p.redis.Del(ctx, lockKey)
	}
}

func (p *Pool) process(ctx context.Context, task *models.ExportTask) (string, error) {
	var (
		records any
		err     error
	)

	switch task.Type {
	case "applicants-export":
		records, err = p.applicants.ListAll(ctx)
	case "organizations-export":
		records, err = p.orgs.ListAll(ctx)
	case "contracts-export":
		records, err = p.contracts.ListAll(ctx)
	default:
		return "", fmt.Errorf("unknown export type: %s", task.Type)
	}
	if err != nil {
		return "", fmt.Errorf("failed to load records: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode records: %w", err)
	}

	if err := os.MkdirAll(p.storagePath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	fileName := fmt.Sprintf("%s-%s.json", task.Type, task.ID.String())
	fullPath := filepath.Join(p.storagePath, fileName)
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return fileName, nil
}

func (p *Pool) handleSuccess(ctx context.Context, task *models.ExportTask, filePath string) {
	if err := p.exportRepo.MarkCompleted(ctx, task.ID, filePath); err != nil {
		log.Printf("failed to mark export %s completed: %v", task.ID, err)
	}

	p.notifier.Notify(ctx, task.UserID,
		fmt.Sprintf("Export %s is ready: %s", task.ID, filePath), "success")

	log.Printf("Export %s completed successfully", task.ID)
}

func (p *Pool) handleFailure(ctx context.Context, task *models.ExportTask, err error) {
	task.RetryCount++
	errMsg := err.Error()

	if task.RetryCount < 3 {
		// Re-queue with backoff
		log.Printf("Export %s failed (attempt %d): %s, retrying", task.ID, task.RetryCount, errMsg)
		p.exportRepo.UpdateStatus(ctx, task.ID, "pending")

		taskBytes, _ := json.Marshal(task)
		backoff := time.Duration(1<<uint(task.RetryCount)) * time.Second
		time.AfterFunc(backoff, func() {
			p.redis.LPush(context.Background(), models.ExportQueue, string(taskBytes))
		})
		return
	}

	// Max retries reached
	log.Printf("Export %s failed permanently: %s", task.ID, errMsg)
	if markErr := p.exportRepo.MarkFailed(ctx, task.ID, errMsg); markErr != nil {
		log.Printf("failed to mark export %s failed: %v", task.ID, markErr)
	}

	p.notifier.Notify(ctx, task.UserID,
		fmt.Sprintf("Export %s failed: %s", task.ID, errMsg), "danger")
}

package main

import (
	"log"

	"github.com/glebarez/sqlite"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/dot-file/accountant-telegram-bot/bot"
	"github.com/dot-file/accountant-telegram-bot/config"
	"github.com/dot-file/accountant-telegram-bot/ledger"
	"github.com/dot-file/accountant-telegram-bot/model"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{})
	if err != nil {
		log.Fatal(err)
	}

	// Auto migrate
	if err := db.AutoMigrate(&model.Entry{}, &model.PendingQuery{}); err != nil {
		log.Fatal(err)
	}

	store := ledger.NewStore(db)

	b, err := bot.New(cfg.BotToken, store)
	if err != nil {
		log.Fatal(err)
	}

	// Scheduler
	if cfg.ReminderCron != "" {
		c := cron.New()
		if _, err := c.AddFunc(cfg.ReminderCron, b.RemindOutstanding); err != nil {
			log.Fatal(err)
		}
		c.Start()
	}

	log.Println("Bot started...")
	b.Start()
}

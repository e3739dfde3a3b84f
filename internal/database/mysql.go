package database

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"groupsight/internal/config"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

type MySql struct {
	db         *sql.DB
	loc        *time.Location
	prefix     string
	statements map[string]*sql.Stmt
	mu         sync.Mutex
}

func NewSQLClient(conf *config.Config) (*MySql, error) {
	connectionURI := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		conf.MySql.UserName, conf.MySql.Password, conf.MySql.HostName, conf.MySql.Port, conf.MySql.Database)
	db, err := sql.Open("mysql", connectionURI)
	if err != nil {
		return nil, fmt.Errorf("sql connect: %w", err)
	}

	// try to ping three times with a 30-second interval; wait for a database to start
	for i := 0; i < 3; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		if i == 2 {
			return nil, fmt.Errorf("ping database: %w", err)
		}
		time.Sleep(30 * time.Second)
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &MySql{
		db:         db,
		prefix:     conf.MySql.Prefix,
		statements: make(map[string]*sql.Stmt),
	}

	if err = sdb.ensureSchema(); err != nil {
		return nil, err
	}
	if err = sdb.seedPlans(); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(conf.Location)
	if err != nil {
		return nil, fmt.Errorf("load location: %w", err)
	}
	sdb.loc = loc

	return sdb, nil
}

func (s *MySql) Close() {
	s.closeStmt()
	_ = s.db.Close()
}

func (s *MySql) table(name string) string {
	return s.prefix + name
}

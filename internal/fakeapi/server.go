// Package fakeapi is an in-memory stand-in for the todo, user and stats
// services. It backs the package tests and `taskdeck demo`.
package fakeapi

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dori/taskdeck/internal/mapper"
	"github.com/dori/taskdeck/internal/model"
	"github.com/gin-gonic/gin"
)

// Service path prefixes. A base address for each service is the server
// address plus one of these.
const (
	TodoPrefix  = "/todos"
	UserPrefix  = "/users"
	StatsPrefix = "/stats"
)

// Server holds the fake backends' state
type Server struct {
	mu       sync.Mutex
	todos    []mapper.TodoWire
	users    []mapper.UserWire
	nextTodo int64
	nextUser int64

	// Per-prefix fault injection
	failing map[string]int
	delay   map[string]time.Duration

	engine *gin.Engine
}

// New creates an empty server with all three services mounted
func New() *Server {
	s := &Server{
		nextTodo: 1,
		nextUser: 1,
		failing:  make(map[string]int),
		delay:    make(map[string]time.Duration),
	}

	r := gin.New()
	r.Use(gin.Recovery())

	todos := r.Group(TodoPrefix+"/api", s.faults(TodoPrefix))
	todos.GET("/list-todo", s.listTodos)
	todos.POST("/todo", s.createTodo)
	todos.PATCH("/todo/:id", s.updateTodo)
	todos.DELETE("/todo/:id", s.deleteTodo)

	users := r.Group(UserPrefix+"/api", s.faults(UserPrefix))
	users.GET("/users", s.listUsers)
	users.POST("/user", s.createUser)
	users.DELETE("/user/:id", s.deleteUser)

	stats := r.Group(StatsPrefix+"/api", s.faults(StatsPrefix))
	stats.GET("/stats", s.stats)
	stats.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "Stats Service is running")
	})

	s.engine = r
	return s
}

// Handler returns the HTTP handler serving all services
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Fail makes every request under prefix answer with status. A zero
// status restores normal behavior.
func (s *Server) Fail(prefix string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failing, prefix)
		return
	}
	s.failing[prefix] = status
}

// Delay holds every request under prefix for d before handling it
func (s *Server) Delay(prefix string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay[prefix] = d
}

// SeedTodo adds a todo directly and returns it
func (s *Server) SeedTodo(content string, done bool) mapper.TodoWire {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertTodo(mapper.TodoWire{Content: content, Done: done, DueDate: model.Today()})
}

// SeedUser adds a user directly and returns it
func (s *Server) SeedUser(username, email string) mapper.UserWire {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertUser(mapper.NewUser(model.UserDraft{Username: username, Email: email}))
}

// Todos returns a copy of the stored todos
func (s *Server) Todos() []mapper.TodoWire {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mapper.TodoWire(nil), s.todos...)
}

func (s *Server) faults(prefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		status := s.failing[prefix]
		d := s.delay[prefix]
		s.mu.Unlock()

		if d > 0 {
			select {
			case <-time.After(d):
			case <-c.Request.Context().Done():
				c.Abort()
				return
			}
		}
		if status != 0 {
			c.AbortWithStatus(status)
			return
		}
		c.Next()
	}
}

func (s *Server) insertTodo(w mapper.TodoWire) mapper.TodoWire {
	id := s.nextTodo
	s.nextTodo++
	w.ID = &id
	s.todos = append(s.todos, w)
	return w
}

func (s *Server) insertUser(w mapper.UserWire) mapper.UserWire {
	id := s.nextUser
	s.nextUser++
	w.ID = &id
	s.users = append(s.users, w)
	return w
}

func (s *Server) listTodos(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]mapper.TodoWire{}, s.todos...)
	c.JSON(http.StatusOK, out)
}

func (s *Server) createTodo(c *gin.Context) {
	var w mapper.TodoWire
	if err := c.ShouldBindJSON(&w); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, s.insertTodo(w))
}

func (s *Server) updateTodo(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var w mapper.TodoWire
	if err := c.ShouldBindJSON(&w); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.todos {
		if *s.todos[i].ID == id {
			w.ID = s.todos[i].ID
			s.todos[i] = w
			c.JSON(http.StatusOK, w)
			return
		}
	}
	c.Status(http.StatusNotFound)
}

func (s *Server) deleteTodo(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.todos {
		if *s.todos[i].ID == id {
			s.todos = append(s.todos[:i], s.todos[i+1:]...)
			break
		}
	}
	c.Status(http.StatusOK)
}

func (s *Server) listUsers(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]mapper.UserWire{}, s.users...)
	c.JSON(http.StatusOK, out)
}

func (s *Server) createUser(c *gin.Context) {
	var w mapper.UserWire
	if err := c.ShouldBindJSON(&w); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == w.Username || u.Email == w.Email {
			c.Status(http.StatusConflict)
			return
		}
	}
	c.JSON(http.StatusCreated, s.insertUser(w))
}

func (s *Server) deleteUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if *s.users[i].ID == id {
			s.users = append(s.users[:i], s.users[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	c.Status(http.StatusNotFound)
}

// stats aggregates like the real stats service, reporting zero users
// when the user service is failing
func (s *Server) stats(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap model.StatsSnapshot
	if s.failing[TodoPrefix] == 0 {
		snap.TotalTodos = len(s.todos)
		for _, t := range s.todos {
			if t.Done {
				snap.CompletedTodos++
			}
		}
	}
	snap.PendingTodos = snap.TotalTodos - snap.CompletedTodos
	if snap.TotalTodos > 0 {
		rate := float64(snap.CompletedTodos) * 100 / float64(snap.TotalTodos)
		snap.CompletionRate = math.Round(rate*100) / 100
	}
	if s.failing[UserPrefix] == 0 {
		snap.TotalUsers = len(s.users)
	}

	c.JSON(http.StatusOK, mapper.FromStats(snap))
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

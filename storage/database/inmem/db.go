package inmemdb

import (
	"sync"

	"github.com/volatiletech/null/v8"

	"github.com/tkimaro/shule/core/article"
	"github.com/tkimaro/shule/core/class"
	"github.com/tkimaro/shule/core/grade"
	"github.com/tkimaro/shule/core/subject"
	"github.com/tkimaro/shule/core/user"
)

type (
	studentRow struct {
		userID  int
		classID null.Int
	}

	teacherRow struct {
		userID     int
		subjectIDs []int
		classIDs   []int
	}

	// DB is an in-memory store sharing one lock across all tables so that
	// cross-table reads (profile + user) stay consistent. It backs unit
	// tests; the repositories satisfy the same interfaces as pgdb.
	DB struct {
		mutex sync.RWMutex

		userPK, classPK, subjectPK, gradePK, articlePK int

		users    map[int]*user.User
		students map[int]*studentRow
		teachers map[int]*teacherRow
		writers  map[int]struct{}
		classes  map[int]*class.Class
		subjects map[int]*subject.Subject
		grades   map[int]*grade.Grade
		articles map[int]*article.Article
	}
)

func NewDB() *DB {
	db := &DB{}
	db.reset()
	return db
}

func (db *DB) reset() {
	db.users = make(map[int]*user.User)
	db.students = make(map[int]*studentRow)
	db.teachers = make(map[int]*teacherRow)
	db.writers = make(map[int]struct{})
	db.classes = make(map[int]*class.Class)
	db.subjects = make(map[int]*subject.Subject)
	db.grades = make(map[int]*grade.Grade)
	db.articles = make(map[int]*article.Article)
}

// Reset empties all tables. Primary key counters keep counting so IDs stay
// unique across test cases.
func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.reset()
}

package employee

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"paygrid-system/internal/database/models"
)

const (
	EMPLOYEE_CACHE_PREFIX   = "employee:"
	EMPLOYEE_LIST_CACHE_KEY = "employees:admin"

	CACHE_TTL_SHORT = 5 * time.Minute

	DefaultPageSize = 15
)

// Store owns all reads and writes of the employees table, including the
// upsert-by-email submission path and the admin salary mutation.
type Store struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewStore(db *gorm.DB, redisClient *redis.Client) *Store {
	return &Store{
		db:    db,
		redis: redisClient,
	}
}

type SubmitInput struct {
	Name                  string
	Email                 string
	Role                  string
	SalaryInLocalCurrency decimal.Decimal
}

type SalaryInput struct {
	SalaryInEuros *decimal.Decimal
	Commission    *decimal.Decimal
}

type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalCount int64 `json:"total_count"`
	TotalPages int   `json:"total_pages"`
}

func (in SubmitInput) validate() error {
	verr := newValidationError()
	if in.Name == "" {
		verr.add("name", "name is required")
	}
	if in.Email == "" {
		verr.add("email", "email is required")
	}
	if in.Role == "" {
		verr.add("role", "role is required")
	}
	if in.SalaryInLocalCurrency.IsNegative() {
		verr.add("salary_in_local_currency", "must be at least 0")
	}
	return verr.orNil()
}

func (in SalaryInput) validate() error {
	verr := newValidationError()
	if in.SalaryInEuros != nil && in.SalaryInEuros.IsNegative() {
		verr.add("salary_in_euros", "must be at least 0")
	}
	if in.Commission != nil && in.Commission.IsNegative() {
		verr.add("commission", "must be at least 0")
	}
	return verr.orNil()
}

// Submit resolves a public submission to create-or-update, keyed by
// email. An update overwrites name, role, and local-currency salary and
// leaves the admin-managed salary fields untouched. The store's unique
// constraint is the final authority: if a concurrent submission wins the
// create race, the loser retries as an update.
func (s *Store) Submit(ctx context.Context, in SubmitInput) (*models.Employee, bool, error) {
	if err := in.validate(); err != nil {
		return nil, false, err
	}

	existing, err := s.FindByEmail(ctx, in.Email)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}
	if existing != nil {
		updated, err := s.overwrite(ctx, existing, in)
		return updated, false, err
	}

	newEmployee := models.Employee{
		Name:                  in.Name,
		Email:                 in.Email,
		Role:                  in.Role,
		SalaryInLocalCurrency: in.SalaryInLocalCurrency,
		Commission:            decimal.NewFromInt(500),
	}

	if err := s.db.WithContext(ctx).Create(&newEmployee).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race to a concurrent submission with the same
			// email; the record exists now, so apply as an update.
			raceWinner, ferr := s.FindByEmail(ctx, in.Email)
			if ferr != nil {
				return nil, false, ferr
			}
			updated, uerr := s.overwrite(ctx, raceWinner, in)
			return updated, false, uerr
		}
		return nil, false, err
	}

	newEmployee.RecomputeDisplayedSalary()
	s.invalidateEmployeeCaches(ctx, newEmployee.ID)

	return &newEmployee, true, nil
}

func (s *Store) overwrite(ctx context.Context, employee *models.Employee, in SubmitInput) (*models.Employee, error) {
	employee.Name = in.Name
	employee.Role = in.Role
	employee.SalaryInLocalCurrency = in.SalaryInLocalCurrency

	if err := s.db.WithContext(ctx).Save(employee).Error; err != nil {
		return nil, err
	}

	employee.RecomputeDisplayedSalary()
	s.invalidateEmployeeCaches(ctx, employee.ID)

	return employee, nil
}

// UpdateSalary is the only path by which salary_in_euros and commission
// change after creation. Absent fields are left unchanged; the derived
// displayed salary reflects the post-update values before any reader
// can observe the record.
func (s *Store) UpdateSalary(ctx context.Context, id int64, in SalaryInput) (*models.Employee, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var employee models.Employee
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&employee, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if in.SalaryInEuros != nil {
			employee.SalaryInEuros = decimal.NewNullDecimal(*in.SalaryInEuros)
		}
		if in.Commission != nil {
			employee.Commission = *in.Commission
		}

		return tx.Save(&employee).Error
	})
	if err != nil {
		return nil, err
	}

	employee.RecomputeDisplayedSalary()
	s.invalidateEmployeeCaches(ctx, employee.ID)

	return &employee, nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*models.Employee, error) {
	var employee models.Employee
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&employee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &employee, nil
}

func (s *Store) Get(ctx context.Context, id int64) (*models.Employee, error) {
	if cached := s.cachedEmployee(ctx, id); cached != nil {
		return cached, nil
	}

	var employee models.Employee
	if err := s.db.WithContext(ctx).First(&employee, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.cacheEmployee(ctx, &employee)
	return &employee, nil
}

// List returns employees ordered newest first (id DESC) with pagination
// metadata. Page size defaults to 15. The first default-size page is
// served read-through from Redis; every mutation invalidates it.
func (s *Store) List(ctx context.Context, page, pageSize int) ([]models.Employee, *Pagination, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	cacheable := page == 1 && pageSize == DefaultPageSize
	if cacheable {
		if cached := s.cachedList(ctx); cached != nil {
			return cached.Employees, &cached.Pagination, nil
		}
	}

	var employees []models.Employee
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Employee{})
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, err
	}

	offset := (page - 1) * pageSize
	if err := query.Order("id DESC").Offset(offset).Limit(pageSize).Find(&employees).Error; err != nil {
		return nil, nil, err
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))

	pagination := Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: totalPages,
	}

	if cacheable {
		s.cacheList(ctx, &listPage{Employees: employees, Pagination: pagination})
	}

	return employees, &pagination, nil
}

// Update overwrites the public fields of an existing record. Changing
// the email to one held by another record surfaces as a validation
// error rather than a raw constraint failure.
func (s *Store) Update(ctx context.Context, id int64, in SubmitInput) (*models.Employee, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var employee models.Employee
	if err := s.db.WithContext(ctx).First(&employee, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	employee.Name = in.Name
	employee.Email = in.Email
	employee.Role = in.Role
	employee.SalaryInLocalCurrency = in.SalaryInLocalCurrency

	if err := s.db.WithContext(ctx).Save(&employee).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			verr := newValidationError()
			verr.add("email", "email is already taken")
			return nil, verr
		}
		return nil, err
	}

	employee.RecomputeDisplayedSalary()
	s.invalidateEmployeeCaches(ctx, employee.ID)

	return &employee, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Delete(&models.Employee{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	s.invalidateEmployeeCaches(ctx, id)
	return nil
}

// --- Cache helpers ---

func (s *Store) invalidateEmployeeCaches(ctx context.Context, ids ...int64) {
	if s.redis == nil {
		return
	}

	_ = s.redis.Del(ctx, EMPLOYEE_LIST_CACHE_KEY)

	for _, id := range ids {
		cacheKey := fmt.Sprintf("%s%d", EMPLOYEE_CACHE_PREFIX, id)
		_ = s.redis.Del(ctx, cacheKey)
	}
}

func (s *Store) cachedEmployee(ctx context.Context, id int64) *models.Employee {
	if s.redis == nil {
		return nil
	}

	cacheKey := fmt.Sprintf("%s%d", EMPLOYEE_CACHE_PREFIX, id)
	payload, err := s.redis.Get(ctx, cacheKey).Result()
	if err != nil {
		return nil
	}

	var employee models.Employee
	if err := json.Unmarshal([]byte(payload), &employee); err != nil {
		return nil
	}

	employee.RecomputeDisplayedSalary()
	return &employee
}

func (s *Store) cacheEmployee(ctx context.Context, employee *models.Employee) {
	if s.redis == nil {
		return
	}

	payload, err := json.Marshal(employee)
	if err != nil {
		return
	}

	cacheKey := fmt.Sprintf("%s%d", EMPLOYEE_CACHE_PREFIX, employee.ID)
	_ = s.redis.Set(ctx, cacheKey, payload, CACHE_TTL_SHORT)
}

type listPage struct {
	Employees  []models.Employee `json:"employees"`
	Pagination Pagination        `json:"pagination"`
}

func (s *Store) cachedList(ctx context.Context) *listPage {
	if s.redis == nil {
		return nil
	}

	payload, err := s.redis.Get(ctx, EMPLOYEE_LIST_CACHE_KEY).Result()
	if err != nil {
		return nil
	}

	var page listPage
	if err := json.Unmarshal([]byte(payload), &page); err != nil {
		return nil
	}

	for i := range page.Employees {
		page.Employees[i].RecomputeDisplayedSalary()
	}
	return &page
}

func (s *Store) cacheList(ctx context.Context, page *listPage) {
	if s.redis == nil {
		return
	}

	payload, err := json.Marshal(page)
	if err != nil {
		return
	}

	_ = s.redis.Set(ctx, EMPLOYEE_LIST_CACHE_KEY, payload, CACHE_TTL_SHORT)
}

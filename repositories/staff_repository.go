package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/labdesk/labdesk_backend/models"
)

// DoctorRepository stores referring doctors
type DoctorRepository struct {
	db         *mongo.Database
	collection *mongo.Collection
}

func NewDoctorRepository(db *mongo.Database) *DoctorRepository {
	return &DoctorRepository{db: db, collection: db.Collection(DoctorsCollection)}
}

func (r *DoctorRepository) Create(ctx context.Context, doctor *models.Doctor) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	id, err := NextID(ctx, r.db, DoctorsCollection)
	if err != nil {
		return err
	}
	doctor.ID = id
	_, err = r.collection.InsertOne(ctx, doctor)
	return mapError(err)
}

func (r *DoctorRepository) FindByID(ctx context.Context, id int64) (*models.Doctor, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var doctor models.Doctor
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doctor); err != nil {
		return nil, mapError(err)
	}
	return &doctor, nil
}

func (r *DoctorRepository) List(ctx context.Context) ([]models.Doctor, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	doctors := []models.Doctor{}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	if err := findAll(ctx, r.collection, bson.M{}, &doctors, opts); err != nil {
		return nil, err
	}
	return doctors, nil
}

// EmployeeRepository stores payroll employees
type EmployeeRepository struct {
	db         *mongo.Database
	collection *mongo.Collection
}

func NewEmployeeRepository(db *mongo.Database) *EmployeeRepository {
	return &EmployeeRepository{db: db, collection: db.Collection(EmployeesCollection)}
}

func (r *EmployeeRepository) Create(ctx context.Context, employee *models.Employee) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	id, err := NextID(ctx, r.db, EmployeesCollection)
	if err != nil {
		return err
	}
	employee.ID = id
	_, err = r.collection.InsertOne(ctx, employee)
	return mapError(err)
}

func (r *EmployeeRepository) FindByID(ctx context.Context, id int64) (*models.Employee, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var employee models.Employee
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&employee); err != nil {
		return nil, mapError(err)
	}
	return &employee, nil
}

// FindByUserID returns the employee linked to a login account
func (r *EmployeeRepository) FindByUserID(ctx context.Context, userID int64) (*models.Employee, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var employee models.Employee
	if err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&employee); err != nil {
		return nil, mapError(err)
	}
	return &employee, nil
}

func (r *EmployeeRepository) List(ctx context.Context) ([]models.Employee, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	employees := []models.Employee{}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if err := findAll(ctx, r.collection, bson.M{}, &employees, opts); err != nil {
		return nil, err
	}
	return employees, nil
}

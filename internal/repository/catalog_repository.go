package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/lshigami/Classtrail/internal/model"
	"gorm.io/gorm"
)

type CatalogRepository interface {
	CreateExercise(ctx context.Context, exercise *model.Exercise, questions []model.Question) error
	FindExercise(ctx context.Context, id uint) (*model.Exercise, error)
	ExerciseExists(ctx context.Context, id uint) (bool, error)
	// QuestionsOf returns the exercise's questions in their exercise order.
	QuestionsOf(ctx context.Context, exerciseID uint) ([]model.Question, error)
	QuestionBelongsToExercise(ctx context.Context, questionID, exerciseID uint) (bool, error)
	FindQuestion(ctx context.Context, id uint) (*model.Question, error)
	ListExercises(ctx context.Context) ([]ExerciseWithCount, error)
	// DeleteExercise removes the exercise with everything that references it in one transaction.
	DeleteExercise(ctx context.Context, id uint) error

	CreateLink(ctx context.Context, link *model.ClassroomExercise) error
	FindLink(ctx context.Context, classroomID uuid.UUID, exerciseID uint) (*model.ClassroomExercise, error)
	ListLinks(ctx context.Context, classroomID uuid.UUID) ([]model.ClassroomExercise, error)
	DeleteLink(ctx context.Context, classroomID uuid.UUID, exerciseID uint) error
}

type ExerciseWithCount struct {
	model.Exercise
	QuestionCount int
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) CreateExercise(ctx context.Context, exercise *model.Exercise, questions []model.Question) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Questions").Create(exercise).Error; err != nil {
			return err
		}
		for i := range questions {
			if err := tx.Create(&questions[i]).Error; err != nil {
				return err
			}
			link := model.ExerciseQuestion{ExerciseID: exercise.ID, QuestionID: questions[i].ID, Order: i + 1}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}
		exercise.Questions = questions
		return nil
	})
	return translate(err, "create exercise")
}

func (r *catalogRepository) FindExercise(ctx context.Context, id uint) (*model.Exercise, error) {
	var exercise model.Exercise
	if err := r.db.WithContext(ctx).First(&exercise, id).Error; err != nil {
		return nil, translate(err, "find exercise")
	}
	return &exercise, nil
}

func (r *catalogRepository) ExerciseExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Exercise{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, translate(err, "check exercise")
	}
	return count > 0, nil
}

func (r *catalogRepository) QuestionsOf(ctx context.Context, exerciseID uint) ([]model.Question, error) {
	var questions []model.Question
	err := r.db.WithContext(ctx).
		Joins("JOIN exercise_questions eq ON eq.question_id = questions.id").
		Where("eq.exercise_id = ?", exerciseID).
		Order("eq.sort_order ASC, questions.id ASC").
		Find(&questions).Error
	return questions, translate(err, "list exercise questions")
}

func (r *catalogRepository) QuestionBelongsToExercise(ctx context.Context, questionID, exerciseID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ExerciseQuestion{}).
		Where("exercise_id = ? AND question_id = ?", exerciseID, questionID).
		Count(&count).Error
	if err != nil {
		return false, translate(err, "check exercise question")
	}
	return count > 0, nil
}

func (r *catalogRepository) FindQuestion(ctx context.Context, id uint) (*model.Question, error) {
	var question model.Question
	if err := r.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, translate(err, "find question")
	}
	return &question, nil
}

func (r *catalogRepository) ListExercises(ctx context.Context) ([]ExerciseWithCount, error) {
	var results []ExerciseWithCount
	err := r.db.WithContext(ctx).Model(&model.Exercise{}).
		Select("exercises.*, (SELECT COUNT(*) FROM exercise_questions eq WHERE eq.exercise_id = exercises.id) AS question_count").
		Order("exercises.created_at DESC").
		Scan(&results).Error
	return results, translate(err, "list exercises")
}

func (r *catalogRepository) DeleteExercise(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exercise model.Exercise
		if err := tx.First(&exercise, id).Error; err != nil {
			return err
		}

		attemptIDs := tx.Model(&model.ExerciseAttempt{}).Select("id").Where("exercise_id = ?", id)
		answerIDs := tx.Model(&model.Answer{}).Select("id").Where("attempt_id IN (?)", attemptIDs)

		steps := []struct {
			value interface{}
			query string
			arg   interface{}
		}{
			{&model.Evaluation{}, "answer_id IN (?)", answerIDs},
			{&model.Answer{}, "attempt_id IN (?)", attemptIDs},
			{&model.ExerciseAttempt{}, "exercise_id = ?", id},
			{&model.LessonProgress{}, "lesson_id IN (?)", tx.Model(&model.TrailLesson{}).Select("id").Where("exercise_id = ?", id)},
			{&model.TrailLesson{}, "exercise_id = ?", id},
			{&model.ClassroomExercise{}, "exercise_id = ?", id},
			{&model.ExerciseQuestion{}, "exercise_id = ?", id},
		}
		for _, step := range steps {
			if err := tx.Where(step.query, step.arg).Delete(step.value).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&exercise).Error
	})
	return translate(err, "delete exercise")
}

func (r *catalogRepository) CreateLink(ctx context.Context, link *model.ClassroomExercise) error {
	return translate(r.db.WithContext(ctx).Omit("Exercise").Create(link).Error, "link exercise")
}

func (r *catalogRepository) FindLink(ctx context.Context, classroomID uuid.UUID, exerciseID uint) (*model.ClassroomExercise, error) {
	var link model.ClassroomExercise
	err := r.db.WithContext(ctx).
		Where("classroom_id = ? AND exercise_id = ?", classroomID, exerciseID).
		First(&link).Error
	if err != nil {
		return nil, translate(err, "find exercise link")
	}
	return &link, nil
}

func (r *catalogRepository) ListLinks(ctx context.Context, classroomID uuid.UUID) ([]model.ClassroomExercise, error) {
	var links []model.ClassroomExercise
	err := r.db.WithContext(ctx).
		Preload("Exercise").
		Where("classroom_id = ?", classroomID).
		Order("sort_order ASC, created_at ASC").
		Find(&links).Error
	return links, translate(err, "list exercise links")
}

func (r *catalogRepository) DeleteLink(ctx context.Context, classroomID uuid.UUID, exerciseID uint) error {
	res := r.db.WithContext(ctx).
		Where("classroom_id = ? AND exercise_id = ?", classroomID, exerciseID).
		Delete(&model.ClassroomExercise{})
	if res.Error != nil {
		return translate(res.Error, "unlink exercise")
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "unlink exercise")
	}
	return nil
}

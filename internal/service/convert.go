package service

import (
	"errors"

	"github.com/medref/revision-service/internal/domain"
	"github.com/medref/revision-service/internal/dto"
	"github.com/medref/revision-service/pkg/code"
	"github.com/medref/revision-service/pkg/convert"
	"github.com/medref/revision-service/pkg/timex"
)

// revisionToDTO 领域修订转换为 DTO
func revisionToDTO(r *domain.Revision) *dto.RevisionDTO {
	if r == nil {
		return nil
	}
	hash := r.ContentHash
	if hash == "" {
		hash = r.Fields.Hash()
	}
	return &dto.RevisionDTO{
		ID:                r.ID,
		ArticleID:         r.ArticleID,
		Version:           r.Version,
		RevisionFields:    r.Fields,
		EditedBy:          r.EditedBy,
		ChangeDescription: r.ChangeDescription,
		ChangeType:        string(r.ChangeType),
		RestoredFrom:      r.RestoredFrom,
		ContentHash:       hash,
		CreatedAt:         timex.Time(r.CreatedAt),
	}
}

// articleToDTO 领域文章转换为 DTO
func articleToDTO(a *domain.Article) *dto.ArticleDTO {
	if a == nil {
		return nil
	}
	return &dto.ArticleDTO{
		ID:             a.ID,
		RevisionFields: a.Fields,
		ViewCount:      a.ViewCount,
		CreatedAt:      timex.Time(a.CreatedAt),
		UpdatedAt:      timex.Time(a.UpdatedAt),
	}
}

// cloneFields 深拷贝字段，避免与快照共享切片；nil 切片保持为 nil
func cloneFields(src domain.RevisionFields) (domain.RevisionFields, error) {
	var out domain.RevisionFields
	if err := convert.StructAssign(&src, &out); err != nil {
		return domain.RevisionFields{}, err
	}
	keepNil(src.Tags, &out.Tags)
	keepNil(src.ReferenceRanges, &out.ReferenceRanges)
	keepNil(src.RelatedTests, &out.RelatedTests)
	keepNil(src.References, &out.References)
	keepNil(src.Images, &out.Images)
	return out, nil
}

func keepNil[T any](src []T, dst *[]T) {
	if src == nil {
		*dst = nil
	}
}

// validationError 将字段校验失败转换为错误码
func validationError(err error) error {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return code.ErrorValidation.WithDetails(verr.Details()...)
	}
	return code.ErrorValidation.WithDetails(err.Error())
}

package usecase

import (
	"time"

	"github.com/kirillkom/compliance-navigator/internal/core/domain"
)

type noopObserver struct{}

func (noopObserver) ObserveExtraction(domain.ExtractionMethod, bool, time.Duration) {}
func (noopObserver) ObserveDocument(domain.DocumentType, int) {}
func (noopObserver) ObserveIntent(domain.Intent, string) {}
func (noopObserver) ObserveResponse(domain.ResponseType, bool) {}

package services

// HealthService reports process liveness.
type HealthService struct {
}

func NewHealthService() *HealthService {
	return &HealthService{}
}

func (s *HealthService) Get() error {
	return nil
}

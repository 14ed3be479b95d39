package server

import "github.com/lox/blackjackrl/sdk/qlearn"

// DecideRequest asks for the action in a hand situation.
type DecideRequest struct {
	PlayerTotal  int  `json:"player_total"`
	DealerUpCard int  `json:"dealer_up_card"`
	Soft         bool `json:"soft"`
	Training     bool `json:"training,omitempty"`
}

// DecideResponse carries the chosen action and the estimates behind it.
type DecideResponse struct {
	Action string  `json:"action"`
	State  string  `json:"state"`
	Stand  float64 `json:"stand"`
	Hit    float64 `json:"hit"`
}

// StatsResponse describes the loaded table.
type StatsResponse struct {
	States  int  `json:"states"`
	Trained bool `json:"trained"`
}

// ErrorResponse is returned for rejected requests.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// State validates the request and returns its learning state.
func (r DecideRequest) State() (qlearn.State, error) {
	s := qlearn.Observe(r.PlayerTotal, r.DealerUpCard, r.Soft)
	if err := s.Validate(); err != nil {
		return qlearn.State{}, err
	}
	return s, nil
}

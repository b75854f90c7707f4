// Package trainer provides high-level training orchestration for RL scenarios.
// It runs training episodes with periodic evaluation, stops on cycle,
// stagnation or adaptation limits, collects cycle data, and can wrap the whole
// training into a hyperparameter tuning study where every trial is one training.
package trainer

// Command train_bglp_optuna trains a placeholder random policy on the bulk
// goods loading plant and tunes its hyperparameters with an Optuna-style
// random search. The policy never learns; the run exercises the training
// and tuning machinery end to end.
//
//	train_bglp_optuna --mode demo
//	train_bglp_optuna --mode test --path /tmp/out --trials 3 --jobs 0
package main

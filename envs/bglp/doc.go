// Package bglp provides a simplified Bulk Goods Loading Plant: material flows
// through six reservoirs moved by five actuators, from a constant supply into
// SILO_A down to a constant production demand out of HOPPER_C.
//
// The state is the normalized fill level of every reservoir, the action the
// normalized drive of every actuator. Rewards are computed per actuator and
// summed per agent, so a multi-agent can give each actuator its own agent.
package bglp

package utils

import (
	"encoding/json"
	"strings"
	"testing"

	"tribune_back_end/internal/models"
)

func TestHashPassword(t *testing.T) {
	t.Run("Given a password When hashed Then verification against the hash succeeds", func(t *testing.T) {
		hash, err := HashPassword("tribune-2026!")
		if err != nil {
			t.Fatalf("hash: %v", err)
		}
		if !IsArgon2Hash(hash) {
			t.Errorf("format inattendu: %s", hash)
		}

		ok, err := VerifyPassword("tribune-2026!", hash)
		if err != nil {
			t.Fatalf("vérification: %v", err)
		}
		if !ok {
			t.Error("le mot de passe d'origine doit correspondre à son hash")
		}
	})

	t.Run("Given a wrong password When verified Then it does not match", func(t *testing.T) {
		hash, err := HashPassword("tribune-2026!")
		if err != nil {
			t.Fatalf("hash: %v", err)
		}

		ok, err := VerifyPassword("autre-mot-de-passe", hash)
		if err != nil {
			t.Fatalf("vérification: %v", err)
		}
		if ok {
			t.Error("un mauvais mot de passe ne doit pas correspondre")
		}
	})

	t.Run("Given an empty stored hash When verified Then it fails for any password", func(t *testing.T) {
		// Un compte dont le hash n'a pas été chargé depuis la base ne
		// doit jamais passer la vérification
		ok, err := VerifyPassword("tribune-2026!", "")
		if err == nil {
			t.Error("un hash vide doit être signalé en erreur")
		}
		if ok {
			t.Error("un hash vide ne doit jamais valider un mot de passe")
		}
	})
}

func TestCustomerJSONNeverCarriesPassword(t *testing.T) {
	// La copie Redis d'un client est son JSON : le hash ne doit jamais
	// y figurer, la vérification passe donc par une lecture base dédiée
	customer := models.Customer{
		ID:       "c-1",
		Email:    "jean@exemple.fr",
		Password: "$argon2id$v=19$m=32768,t=1,p=4$abc$def",
	}

	data, err := json.Marshal(customer)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "argon2id") {
		t.Errorf("le hash du mot de passe fuit dans le JSON: %s", data)
	}

	var restored models.Customer
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if restored.Password != "" {
		t.Error("le mot de passe ne doit pas survivre à un aller-retour JSON")
	}
}
